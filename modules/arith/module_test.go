package arith

import (
	"context"
	"testing"

	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernels(t *testing.T) {
	r := registry.New(&Module{})

	testCases := []struct {
		kernel   string
		inputs   []value.TensorHandle
		expected int64
	}{
		{kernel: "arith.add", inputs: []value.TensorHandle{hostmem.Number(5), hostmem.Number(1)}, expected: 6},
		{kernel: "arith.sub", inputs: []value.TensorHandle{hostmem.Number(3), hostmem.Number(1)}, expected: 2},
		{kernel: "arith.mul", inputs: []value.TensorHandle{hostmem.Number(3), hostmem.Number(2)}, expected: 6},
		{kernel: "arith.div", inputs: []value.TensorHandle{hostmem.Number(9), hostmem.Number(3)}, expected: 3},
		{kernel: "arith.mod", inputs: []value.TensorHandle{hostmem.Number(7), hostmem.Number(4)}, expected: 3},
		{kernel: "arith.neg", inputs: []value.TensorHandle{hostmem.Number(4)}, expected: -4},
		{kernel: "arith.abs", inputs: []value.TensorHandle{hostmem.Number(-4)}, expected: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.kernel, func(t *testing.T) {
			outs, err := r.Launch(context.Background(), tc.kernel, tc.inputs)
			require.NoError(t, err)
			require.Len(t, outs, 1)
			got, err := hostmem.Int64(outs[0])
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestTypeMismatchIsAnError(t *testing.T) {
	r := registry.New(&Module{})
	_, err := r.Launch(context.Background(), "arith.add", []value.TensorHandle{hostmem.Number(1), hostmem.String("x")})
	assert.Error(t, err)
}
