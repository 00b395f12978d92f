// Package plotindex answers "does this ISBN prefix have an associated
// record" by sampling pre-rendered plot rasters instead of querying a
// database. One bitmap per digit-depth group encodes billions of boolean
// memberships: a nonzero pixel at a position means the prefix covering that
// position has a record. Depth groups run from 4 to 9 prefix digits; odd
// groups are stored rotated a quarter turn, and the deepest groups arrive
// as ten vertically-stacked strips to keep any single raster within
// practical size limits.
package plotindex

import (
	"image"

	"github.com/conundrumer/all-isbns/pkg/dataset"
	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/grid"
)

// MinDepth and MaxDepth bound the prefix digit counts covered by plots.
const (
	MinDepth = 4
	MaxDepth = 9
)

// groupDims lists the raster dimensions per depth group, before rotation.
// One pixel per prefix: group i covers prefixes of 4+i digits.
var groupDims = [6]image.Point{
	{X: 50, Y: 40},
	{X: 50, Y: 400},
	{X: 500, Y: 400},
	{X: 500, Y: 4000},
	{X: 5000, Y: 4000},
	{X: 5000, Y: 40000},
}

// group is one depth group's storage layout.
type group struct {
	rotated bool
	strips  []string // resource paths, in stack order
}

// Index samples the plot rasters of one directory (for example the
// publisher-range plots). Rasters load lazily through the shared image
// cache; a query issued before a raster settles simply reports no
// memberships for the affected pixels, and the settle callback redraws.
type Index struct {
	cache  *dataset.ImageCache
	groups [6]group
}

// New builds an index from the manifest's plot listing for dir.
func New(cache *dataset.ImageCache, dir string, plots []dataset.PlotFile) *Index {
	ix := &Index{cache: cache}
	for _, pf := range plots {
		if pf.Group < 0 || pf.Group >= len(ix.groups) {
			continue
		}
		g := group{rotated: pf.Rotated}
		for _, name := range pf.Strips {
			g.strips = append(g.strips, dir+"/"+name+".png")
		}
		ix.groups[pf.Group] = g
	}
	return ix
}

// ResultSet accumulates matched prefixes across depths.
type ResultSet map[string]struct{}

// HasAncestor reports whether any proper ancestor of prefix (at plot
// depths) is already in the set.
func (rs ResultSet) HasAncestor(prefix string) bool {
	for l := MinDepth; l < len(prefix); l++ {
		if _, ok := rs[prefix[:l]]; ok {
			return true
		}
	}
	return false
}

// Query returns the prefixes of exactly `depth` digits that have a record
// within the content-space rectangle. Prefixes whose ancestor is already in
// seen are dropped — only the most specific new membership survives — and
// the survivors are added to seen. A nil seen skips de-duplication.
func (ix *Index) Query(depth int, rect geom.Rect, seen ResultSet) []string {
	if depth < MinDepth || depth > MaxDepth {
		return nil
	}
	g := ix.groups[depth-MinDepth]
	if len(g.strips) == 0 {
		return nil
	}
	dims := groupDims[depth-MinDepth]
	cellW := float64(grid.Width) / float64(dims.X)
	cellH := float64(grid.Height) / float64(dims.Y)

	px0 := clampInt(int(rect.X/cellW), 0, dims.X-1)
	px1 := clampInt(int(rect.MaxX()/cellW), 0, dims.X-1)
	py0 := clampInt(int(rect.Y/cellH), 0, dims.Y-1)
	py1 := clampInt(int(rect.MaxY()/cellH), 0, dims.Y-1)

	strips := make([]image.Image, len(g.strips))
	for i, path := range g.strips {
		r := ix.cache.Get(path)
		if r.State() == dataset.Loaded {
			strips[i] = r.Image()
		}
	}

	var out []string
	for py := py0; py <= py1; py++ {
		for px := px0; px <= px1; px++ {
			if !ix.sample(g, dims, strips, px, py) {
				continue
			}
			prefix := grid.PrefixAt(
				(float64(px)+0.5)*cellW,
				(float64(py)+0.5)*cellH,
				depth,
			)
			if seen != nil {
				if seen.HasAncestor(prefix) {
					continue
				}
				seen[prefix] = struct{}{}
			}
			out = append(out, prefix)
		}
	}
	return out
}

// sample reads the bit for un-rotated plot pixel (px, py), translating
// through the rotated storage orientation and the strip stack.
func (ix *Index) sample(g group, dims image.Point, strips []image.Image, px, py int) bool {
	sx, sy := px, py
	storedH := dims.Y
	if g.rotated {
		// Stored image is the plot rotated a quarter turn counter-
		// clockwise: stored(y, W-1-x) = plot(x, y).
		sx, sy = py, dims.X-1-px
		storedH = dims.X
	}
	stripH := storedH / len(strips)
	si := sy / stripH
	if si >= len(strips) {
		si = len(strips) - 1
	}
	img := strips[si]
	if img == nil {
		return false
	}
	b := img.Bounds()
	r, gr, bl, _ := img.At(b.Min.X+sx, b.Min.Y+sy-si*stripH).RGBA()
	return r|gr|bl != 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
