package autotest

import (
	"cmp"
	"slices"

	"mold_autotest/internal/thermocouple"
)

// Ordering returns the labels of the side's thermocouples that are OK and not
// yet tested, in the order the operator is expected to heat them.
//
// HorizontalFirst sorts by label. VerticalFirst sorts by y descending and then,
// stably, by x ascending: columns left to right, each column top to bottom.
func Ordering(sideSensors []*thermocouple.Thermocouple, d Direction, tested func(label int) bool) []int {
	candidates := make([]*thermocouple.Thermocouple, 0, len(sideSensors))
	for _, tc := range sideSensors {
		if tc.IsOK() && !tested(tc.Label) {
			candidates = append(candidates, tc)
		}
	}
	slices.SortFunc(candidates, func(a, b *thermocouple.Thermocouple) int {
		return cmp.Compare(a.Label, b.Label)
	})

	if d == VerticalFirst {
		slices.SortStableFunc(candidates, func(a, b *thermocouple.Thermocouple) int {
			return cmp.Compare(b.Y, a.Y)
		})
		slices.SortStableFunc(candidates, func(a, b *thermocouple.Thermocouple) int {
			return cmp.Compare(a.X, b.X)
		})
	}

	labels := make([]int, len(candidates))
	for i, tc := range candidates {
		labels[i] = tc.Label
	}
	return labels
}
