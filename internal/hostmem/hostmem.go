// Package hostmem is the host-memory implementation of tensor handles: every
// handle is a *Tensor holding an immutable cty value. It is what the command
// line front end and the bundled kernels use; the engine itself only ever sees
// opaque handles.
package hostmem

import (
	"fmt"
	"math/big"

	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Tensor is an immutable host value. Handles are *Tensor, so routing a handle
// to several consumers shares one Tensor.
type Tensor struct {
	v cty.Value
}

// New wraps v.
func New(v cty.Value) *Tensor { return &Tensor{v: v} }

// Number returns a tensor holding an integer.
func Number(n int64) *Tensor { return New(cty.NumberIntVal(n)) }

// Float returns a tensor holding a float.
func Float(f float64) *Tensor { return New(cty.NumberFloatVal(f)) }

// Bool returns a tensor holding a boolean.
func Bool(b bool) *Tensor { return New(cty.BoolVal(b)) }

// String returns a tensor holding a string.
func String(s string) *Tensor { return New(cty.StringVal(s)) }

// Value returns the wrapped cty value.
func (t *Tensor) Value() cty.Value { return t.v }

func (t *Tensor) String() string {
	return Format(t.v)
}

// Format renders v the way results are printed.
func Format(v cty.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case !v.IsKnown():
		return "(unknown)"
	case v.Type() == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			return bf.Text('f', 0)
		}
		return bf.Text('g', -1)
	case v.Type() == cty.Bool:
		return fmt.Sprintf("%t", v.True())
	case v.Type() == cty.String:
		return fmt.Sprintf("%q", v.AsString())
	}
	buf, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(buf)
}

// Unwrap returns the cty value behind a handle.
func Unwrap(h value.TensorHandle) (cty.Value, error) {
	t, ok := h.(*Tensor)
	if !ok || t == nil {
		return cty.NilVal, fmt.Errorf("handle %v (%T) is not a host tensor", h, h)
	}
	return t.v, nil
}

// UnwrapAll is Unwrap over a slice.
func UnwrapAll(hs []value.TensorHandle) ([]cty.Value, error) {
	vals := make([]cty.Value, len(hs))
	for i, h := range hs {
		v, err := Unwrap(h)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// WrapAll turns cty values into handles.
func WrapAll(vals []cty.Value) []value.TensorHandle {
	hs := make([]value.TensorHandle, len(vals))
	for i, v := range vals {
		hs[i] = New(v)
	}
	return hs
}

// Int64 reads a handle holding a whole number.
func Int64(h value.TensorHandle) (int64, error) {
	v, err := Unwrap(h)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := gocty.FromCtyValue(v, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Call applies a cty function to handles and wraps its single result.
func Call(fn function.Function, hs []value.TensorHandle) ([]value.TensorHandle, error) {
	args, err := UnwrapAll(hs)
	if err != nil {
		return nil, err
	}
	out, err := fn.Call(args)
	if err != nil {
		return nil, err
	}
	return []value.TensorHandle{New(out)}, nil
}

// Reader reads host tensors as switch conditions.
type Reader struct{}

// ReadCondition reads true as branch 0, false as branch 1 and a whole number
// n as branch n.
func (Reader) ReadCondition(h value.TensorHandle) (int, error) {
	v, err := Unwrap(h)
	if err != nil {
		return 0, err
	}
	if v.IsNull() || !v.IsKnown() {
		return 0, fmt.Errorf("condition is not a known value")
	}
	switch v.Type() {
	case cty.Bool:
		if v.True() {
			return 0, nil
		}
		return 1, nil
	case cty.Number:
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return 0, fmt.Errorf("condition %s is not a whole number", bf.Text('g', -1))
		}
		n, acc := bf.Int64()
		if acc != big.Exact || n < 0 {
			return 0, fmt.Errorf("condition %s is not a branch index", bf.Text('g', -1))
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("condition of type %s cannot select a branch", v.Type().FriendlyName())
	}
}
