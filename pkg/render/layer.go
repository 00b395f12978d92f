package render

import (
	"image/color"

	"github.com/conundrumer/all-isbns/pkg/grid"
)

// Subset selects which half of a dataset a layer shows.
type Subset int

const (
	// Both paints the _in and _out subsets together.
	Both Subset = iota
	// In paints only records present in the collection.
	In
	// Out paints only records absent from the collection.
	Out
)

// Layer is one entry of the user-ordered layer stack. Layers draw bottom
// to top; each contributes its tinted tiles additively to the frame.
type Layer struct {
	ID      string
	Visible bool
	Color   color.RGBA
	Dataset string // tile dataset name from the manifest
	Subset  Subset
	Props   bool // numeric-property dataset (year, holding count)

	// Cutoff clips the value gradient: values at or above it render as
	// full intensity. Zero disables.
	Cutoff uint8
	// LowerCutoff lightens values beneath it toward the cutoff point.
	// Zero disables.
	LowerCutoff uint8
	// Floor lifts nonzero values to a minimum intensity. Zero disables.
	Floor uint8
}

// SubsetDirs returns the tile directories this layer paints, in paint
// order. The "all" and "md5" datasets are not split into subsets.
func (l Layer) SubsetDirs() []string {
	switch l.Dataset {
	case "all", "md5":
		return []string{l.Dataset}
	}
	switch l.Subset {
	case In:
		return []string{l.Dataset + "_in"}
	case Out:
		return []string{l.Dataset + "_out"}
	default:
		return []string{l.Dataset + "_in", l.Dataset + "_out"}
	}
}

// Root returns the tile root directory for the layer's dataset kind.
func (l Layer) Root() string {
	if l.Props {
		return "props"
	}
	return "tiles"
}

// Levels returns the divisor ladder the layer's tiles were rendered at.
func (l Layer) Levels() []grid.Level {
	if l.Props {
		return grid.PropLevels
	}
	return grid.SetLevels
}

// Mode returns how the layer's subsets combine: counts stack, values
// keep the maximum.
func (l Layer) Mode() BlendMode {
	if l.Props {
		return Max
	}
	return Add
}
