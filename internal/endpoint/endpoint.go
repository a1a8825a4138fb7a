package endpoint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoSlot marks an endpoint written without a slot index.
const NoSlot = -1

// segmentRegex is used to parse a single segment of a path, e.g., `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:\[(\d+)\])?$`)

// Endpoint is one end of an arrow: an actor and one of its slots.
type Endpoint struct {
	Actor string
	Slot  int
}

// HasSlot returns true if the endpoint names an explicit slot.
func (e Endpoint) HasSlot() bool {
	return e.Slot != NoSlot
}

// String serializes the endpoint into its canonical form.
func (e Endpoint) String() string {
	if !e.HasSlot() {
		return e.Actor
	}
	return fmt.Sprintf("%s[%d]", e.Actor, e.Slot)
}

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	return name != "-" && strings.Trim(name, "_") != ""
}

// Parse creates an Endpoint from its canonical string representation.
func Parse(raw string) (Endpoint, error) {
	if raw == "" {
		return Endpoint{}, fmt.Errorf("endpoint cannot be empty")
	}

	segments := strings.Split(raw, ".")
	names := make([]string, 0, len(segments))
	slot := NoSlot
	for i, segmentStr := range segments {
		if segmentStr == "" {
			return Endpoint{}, fmt.Errorf("endpoint %q contains empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return Endpoint{}, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}
		if !isValidSegmentName(matches[1]) {
			return Endpoint{}, fmt.Errorf("invalid segment name: %q", matches[1])
		}
		names = append(names, matches[1])

		if matches[2] == "" {
			continue
		}
		if i != len(segments)-1 {
			return Endpoint{}, fmt.Errorf("endpoint %q: only the last segment may carry a slot", raw)
		}
		index, err := strconv.Atoi(matches[2])
		if err != nil {
			// Unreachable due to regex `\d+`
			return Endpoint{}, fmt.Errorf("internal error parsing slot: %w", err)
		}
		slot = index
	}

	return Endpoint{Actor: strings.Join(names, "."), Slot: slot}, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(raw string) Endpoint {
	e, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return e
}
