package render

import (
	"image"
	"image/color"
	stdraw "image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/conundrumer/all-isbns/pkg/dataset"
	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/grid"
)

// PaintTiles fills dst with the tiles of one dataset directory. The divisor
// ladder is walked from the coarsest level up to the one matching the
// current scale, so coarse tiles back-fill behind finer tiles that have
// not arrived yet; levels finer than the selected one are never fetched.
//
// A tile that settled NotFound erases its region to black: most tiles in a
// sparse dataset simply do not exist, and the coarse backdrop must not
// keep suggesting data there. A tile still pending leaves the backdrop
// alone.
func PaintTiles(dst *image.Gray, cache *dataset.ImageCache, root, dir string, levels []grid.Level, tr geom.Transform, pixelRatio float64) {
	visible := tr.VisibleRect()
	if !visible.Overlaps(grid.ContentRect) {
		return
	}
	selected := grid.SelectLevel(levels, tr.Scale*pixelRatio)

	for i := 0; i <= selected; i++ {
		level := levels[i]
		size := grid.TileSize(level.Divisor)
		density := tr.Scale * pixelRatio * float64(level.Factor)

		for _, tile := range grid.TilesIn(visible, level.Divisor) {
			res := cache.Get(root + "/" + dir + "/" + tile.ID + ".png")
			r := deviceRect(tr, tile.X, tile.Y, size, pixelRatio)

			switch res.State() {
			case dataset.NotFound:
				stdraw.Draw(dst, r.Intersect(dst.Bounds()),
					image.NewUniform(color.Gray{}), image.Point{}, stdraw.Src)
			case dataset.Loaded:
				src := res.Image()
				tileScaler(density).Scale(dst, r, src, src.Bounds(), xdraw.Src, nil)
			}
		}
	}
}

// deviceRect projects a content-space square onto the device-pixel grid.
// Both edges round independently so neighbouring tiles share seams.
func deviceRect(tr geom.Transform, x, y, size, pixelRatio float64) image.Rectangle {
	tl := tr.ContentToScreen(geom.Pt(x, y))
	br := tr.ContentToScreen(geom.Pt(x+size, y+size))
	return image.Rect(
		int(math.Round(tl.X*pixelRatio)),
		int(math.Round(tl.Y*pixelRatio)),
		int(math.Round(br.X*pixelRatio)),
		int(math.Round(br.Y*pixelRatio)),
	)
}

// tileScaler picks the resampling kernel: magnified tiles must keep their
// hard pixel edges (each pixel is an ISBN position), minified tiles are
// smoothed to avoid shimmer.
func tileScaler(density float64) xdraw.Scaler {
	if density >= 1 {
		return xdraw.NearestNeighbor
	}
	return xdraw.ApproxBiLinear
}
