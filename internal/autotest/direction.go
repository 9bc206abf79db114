package autotest

import (
	"strings"

	"github.com/iancoleman/strcase"
)

// Direction selects the guided testing order within a mold side.
type Direction int

const (
	HorizontalFirst Direction = iota
	VerticalFirst
)

func (d Direction) String() string {
	if d == VerticalFirst {
		return "vertical_first"
	}
	return "horizontal_first"
}

var directionAliases = map[string]Direction{
	"hf":               HorizontalFirst,
	"horizontal":       HorizontalFirst,
	"horizontal-first": HorizontalFirst,
	"horz":             HorizontalFirst,
	"vf":               VerticalFirst,
	"vertical":         VerticalFirst,
	"vertical-first":   VerticalFirst,
	"vert":             VerticalFirst,
}

// ParseDirection normalises a free-form direction string ("Horizontal First",
// "VERTICAL_FIRST", "hf", ...). The second result is false for unknown values.
func ParseDirection(s string) (Direction, bool) {
	key := strcase.ToKebab(strings.TrimSpace(s))
	d, ok := directionAliases[key]
	return d, ok
}
