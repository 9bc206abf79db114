package thermocouple

import (
	"fmt"
	"sort"
)

// Position places a thermocouple on a mold side.
type Position struct {
	Label int
	X, Y  int
	Side  Side
}

// Registry owns every thermocouple of a mold. Sensors are kept in ascending
// label order, which is the iteration order used everywhere else.
type Registry struct {
	ordered []*Thermocouple
	byLabel map[int]*Thermocouple
}

// NewRegistry builds the registry from the mold layout.
func NewRegistry(layout []Position) (*Registry, error) {
	r := &Registry{
		ordered: make([]*Thermocouple, 0, len(layout)),
		byLabel: make(map[int]*Thermocouple, len(layout)),
	}
	for _, p := range layout {
		if _, dup := r.byLabel[p.Label]; dup {
			return nil, fmt.Errorf("duplicate thermocouple label %d", p.Label)
		}
		side, err := ParseSide(string(p.Side))
		if err != nil {
			return nil, fmt.Errorf("thermocouple %d: %w", p.Label, err)
		}
		tc := New(p.Label, p.X, p.Y, side)
		r.byLabel[p.Label] = tc
		r.ordered = append(r.ordered, tc)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Label < r.ordered[j].Label
	})
	return r, nil
}

// Get looks a thermocouple up by label.
func (r *Registry) Get(label int) (*Thermocouple, bool) {
	tc, ok := r.byLabel[label]
	return tc, ok
}

// All returns every thermocouple in ascending label order.
func (r *Registry) All() []*Thermocouple {
	return r.ordered
}

// BySide returns the thermocouples of one side in ascending label order.
func (r *Registry) BySide(side Side) []*Thermocouple {
	var out []*Thermocouple
	for _, tc := range r.ordered {
		if tc.Side == side {
			out = append(out, tc)
		}
	}
	return out
}

// Len returns the number of thermocouples.
func (r *Registry) Len() int {
	return len(r.ordered)
}
