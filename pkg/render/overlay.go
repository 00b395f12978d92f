package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/conundrumer/all-isbns/pkg/dataset"
	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/grid"
	"github.com/conundrumer/all-isbns/pkg/plotindex"
)

// Overlay fade thresholds, in on-screen cell pixels. A subdivision level
// starts appearing once its cells reach fadeStartPx and is fully opaque at
// fadeFullPx; labels need more room than lines.
const (
	fadeStartPx = 24.0
	fadeFullPx  = 96.0
	labelMinPx  = 56.0
)

var (
	lineColor      = color.RGBA{R: 255, G: 255, B: 255, A: 70}
	veilColor      = color.RGBA{A: 140}
	reservedColor  = color.RGBA{R: 110, G: 110, B: 110, A: 90}
	washColor      = color.RGBA{R: 255, G: 255, B: 255, A: 28}
	hoverColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hoverFillColor = color.RGBA{R: 255, G: 255, B: 255, A: 30}
	labelColor     = color.RGBA{R: 255, G: 255, B: 255, A: 220}
)

// Overlay draws the recursive region chrome on top of the composited
// frame: subdivision grid lines, membership highlighting from the spatial
// index, reserved-space shading, the hovered cell, and agency or
// publisher labels. Everything fades in and out with the on-screen cell
// size so the map never shows more structure than the zoom can resolve.
type Overlay struct {
	Agencies   dataset.Agencies
	Publishers *dataset.Publishers
	Index      *plotindex.Index
}

// cell is one visible region at a subdivision level.
type cell struct {
	prefix string
	rect   geom.Rect // content space
}

// Draw renders the overlay for one frame. cursor is the pointer position
// in screen units. The spatial index is consulted at most once per depth
// per call, over the visible rectangle only.
func (o *Overlay) Draw(s Surface, tr geom.Transform, cursor geom.Point) {
	vis := tr.VisibleRect()

	var levels []int
	for l := 2; l <= 10; l += 2 {
		if fade(levelSide(l)*tr.Scale) > 0 {
			levels = append(levels, l)
		}
	}
	if len(levels) == 0 {
		return
	}
	deepest := levels[len(levels)-1]

	highlights := o.queryHighlights(vis, deepest)

	// Region passes run at the deepest resolvable level: first a veil over
	// cells with no memberships, then reserved-space shading, then a light
	// wash over member cells, and the hovered cell last so it reads above
	// everything.
	if deepest >= plotindex.MinDepth && o.Index != nil {
		cells := visibleCells(tr, deepest)
		a := fade(levelSide(deepest) * tr.Scale)

		for _, c := range cells {
			if !touchesHighlight(highlights, c.prefix) {
				s.FillRect(screenRect(tr, c.rect), scaleAlpha(veilColor, a))
			}
		}
		if o.Agencies != nil {
			for _, c := range cells {
				if _, _, ok := o.Agencies.LongestMatch(c.prefix); !ok {
					s.FillRect(screenRect(tr, c.rect), scaleAlpha(reservedColor, a))
				}
			}
		}
		for _, c := range cells {
			if touchesHighlight(highlights, c.prefix) {
				s.FillRect(screenRect(tr, c.rect), scaleAlpha(washColor, a))
			}
		}
	}
	for _, l := range levels {
		a := fade(levelSide(l) * tr.Scale)
		for _, c := range visibleCells(tr, l) {
			s.StrokeRect(screenRect(tr, c.rect), scaleAlpha(lineColor, a), 1)
		}
	}

	o.drawLabels(s, tr, levels, highlights)

	if p := tr.ScreenToContent(cursor); grid.ContentRect.Contains(p) {
		prefix := grid.PrefixAt(p.X, p.Y, deepest)
		r := screenRect(tr, grid.PrefixRect(prefix))
		s.FillRect(r, hoverFillColor)
		s.StrokeRect(r, hoverColor, 1.5)
	}
}

// queryHighlights collects member prefixes from the spatial index for
// every depth the current zoom can resolve, de-duplicating descendants of
// already-matched prefixes across depths.
func (o *Overlay) queryHighlights(vis geom.Rect, deepest int) map[string]bool {
	if o.Index == nil {
		return nil
	}
	maxDepth := deepest + 1
	if maxDepth > plotindex.MaxDepth {
		maxDepth = plotindex.MaxDepth
	}
	seen := plotindex.ResultSet{}
	highlights := make(map[string]bool)
	for depth := plotindex.MinDepth; depth <= maxDepth; depth++ {
		for _, p := range o.Index.Query(depth, vis, seen) {
			highlights[p] = true
		}
	}
	return highlights
}

func (o *Overlay) drawLabels(s Surface, tr geom.Transform, levels []int, highlights map[string]bool) {
	for _, l := range levels {
		cellPx := levelSide(l) * tr.Scale
		if cellPx < labelMinPx {
			continue
		}
		a := fade(cellPx)
		size := geom.Clamp(cellPx/8, 10, 18)

		for _, c := range visibleCells(tr, l) {
			name := o.cellName(c.prefix, l)
			if name == "" {
				continue
			}
			tl := tr.ContentToScreen(geom.Pt(c.rect.X, c.rect.Y))
			s.Text(name, geom.Pt(tl.X+4, tl.Y+4+size), size, scaleAlpha(labelColor, a))
		}
	}

	// Odd-depth memberships are row slices inside a square cell; label them
	// directly on their own rectangles when they are tall enough to read.
	for p := range highlights {
		if len(p)%2 == 0 {
			continue
		}
		r := grid.PrefixRect(p)
		if r.H*tr.Scale < labelMinPx/2 {
			continue
		}
		if names, loaded := o.lookupPublisher(p); loaded && len(names) > 0 {
			tl := tr.ContentToScreen(geom.Pt(r.X, r.Y))
			size := geom.Clamp(r.H*tr.Scale/4, 10, 16)
			s.Text(names[0], geom.Pt(tl.X+4, tl.Y+4+size), size, labelColor)
		}
	}
}

// cellName picks the label for a cell: the publisher registered at the
// prefix when known, otherwise the agency — but only at the level the
// agency prefix actually lives at, so a country name is not repeated in
// every one of its descendants.
func (o *Overlay) cellName(prefix string, level int) string {
	if level >= plotindex.MinDepth {
		if names, loaded := o.lookupPublisher(prefix); loaded && len(names) > 0 {
			return names[0]
		}
	}
	if o.Agencies == nil {
		return ""
	}
	matched, name, ok := o.Agencies.LongestMatch(prefix)
	if !ok || len(matched) < level-1 {
		return ""
	}
	return name
}

func (o *Overlay) lookupPublisher(prefix string) ([]string, bool) {
	if o.Publishers == nil {
		return nil, true
	}
	return o.Publishers.Lookup(prefix)
}

// touchesHighlight reports whether the cell prefix contains or is
// contained by any member prefix.
func touchesHighlight(highlights map[string]bool, prefix string) bool {
	for p := range highlights {
		if strings.HasPrefix(p, prefix) || strings.HasPrefix(prefix, p) {
			return true
		}
	}
	return false
}

// levelSide returns the content-space edge of a square cell at an even
// prefix length: 10000 at two digits, divided by ten for every further
// digit pair.
func levelSide(level int) float64 {
	return grid.BlockSize / math.Pow(10, float64((level-2)/2))
}

func fade(cellPx float64) float64 {
	return geom.Clamp((cellPx-fadeStartPx)/(fadeFullPx-fadeStartPx), 0, 1)
}

// visibleCells enumerates the cells of an even subdivision level that
// overlap the viewport, clamped to the content rectangle.
func visibleCells(tr geom.Transform, level int) []cell {
	side := levelSide(level)
	vis := tr.VisibleRect()

	x0 := int(math.Floor(math.Max(vis.X, 0) / side))
	y0 := int(math.Floor(math.Max(vis.Y, 0) / side))
	x1 := int(math.Floor(math.Min(vis.MaxX(), grid.Width-1) / side))
	y1 := int(math.Floor(math.Min(vis.MaxY(), grid.Height-1) / side))

	var out []cell
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			px := (float64(cx) + 0.5) * side
			py := (float64(cy) + 0.5) * side
			out = append(out, cell{
				prefix: grid.PrefixAt(px, py, level),
				rect: geom.Rect{
					X: float64(cx) * side,
					Y: float64(cy) * side,
					W: side,
					H: side,
				},
			})
		}
	}
	return out
}

// screenRect projects a content rectangle into screen units.
func screenRect(tr geom.Transform, r geom.Rect) geom.Rect {
	tl := tr.ContentToScreen(geom.Pt(r.X, r.Y))
	return geom.Rect{X: tl.X, Y: tl.Y, W: r.W * tr.Scale, H: r.H * tr.Scale}
}

func scaleAlpha(c color.RGBA, a float64) color.RGBA {
	c.A = uint8(float64(c.A)*a + 0.5)
	return c
}
