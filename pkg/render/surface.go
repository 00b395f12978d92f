package render

import (
	"image/color"

	"github.com/conundrumer/all-isbns/pkg/geom"
)

// Surface is the vector drawing target for the overlay: grid lines,
// region fills and labels on top of the composited frame. Coordinates are
// device-independent screen units; the driver applies the pixel ratio.
// Alpha rides in the color.
type Surface interface {
	StrokeRect(r geom.Rect, col color.RGBA, width float64)
	FillRect(r geom.Rect, col color.RGBA)
	Text(s string, at geom.Point, size float64, col color.RGBA)
}

// OpKind tags a recorded surface operation.
type OpKind int

const (
	OpStroke OpKind = iota
	OpFill
	OpText
)

// Op is one recorded drawing call.
type Op struct {
	Kind  OpKind
	Rect  geom.Rect
	At    geom.Point
	Text  string
	Color color.RGBA
	Width float64
	Size  float64
}

// Recorder is a Surface that records calls instead of drawing. Tests
// assert on the recorded stream.
type Recorder struct {
	Ops []Op
}

func (r *Recorder) StrokeRect(rect geom.Rect, col color.RGBA, width float64) {
	r.Ops = append(r.Ops, Op{Kind: OpStroke, Rect: rect, Color: col, Width: width})
}

func (r *Recorder) FillRect(rect geom.Rect, col color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpFill, Rect: rect, Color: col})
}

func (r *Recorder) Text(s string, at geom.Point, size float64, col color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpText, At: at, Text: s, Size: size, Color: col})
}

// Count returns how many recorded ops have the given kind.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
