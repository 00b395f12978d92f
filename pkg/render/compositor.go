package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/conundrumer/all-isbns/pkg/dataset"
	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/grid"
)

// Overview is a full-plane backdrop raster, painted beneath every layer
// with a max blend so it shows through wherever the layers are dark but
// never brightens loaded data.
type Overview struct {
	Path string
	Tint color.RGBA
}

// Compositor owns the reusable pixel buffers of the frame pipeline. It is
// not safe for concurrent use; the scheduler serializes frames.
type Compositor struct {
	cache     *dataset.ImageCache
	overviews []Overview

	frame     *image.RGBA
	layerBuf  *image.Gray
	subsetBuf *image.Gray
}

// NewCompositor builds a compositor drawing overviews beneath the layers.
func NewCompositor(cache *dataset.ImageCache, overviews []Overview) *Compositor {
	return &Compositor{cache: cache, overviews: overviews}
}

// SetOverviews replaces the backdrop rasters. The manifest names them, so
// they are only known after boot.
func (c *Compositor) SetOverviews(overviews []Overview) {
	c.overviews = overviews
}

// Render composites one frame at the given camera and returns the frame
// buffer. The returned image is reused by the next call; the driver must
// blit it before rendering again.
func (c *Compositor) Render(tr geom.Transform, pixelRatio float64, layers []Layer) *image.RGBA {
	w := int(math.Round(tr.Width * pixelRatio))
	h := int(math.Round(tr.Height * pixelRatio))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c.ensure(w, h)

	clearPix(c.frame.Pix)
	for i := 3; i < len(c.frame.Pix); i += 4 {
		c.frame.Pix[i] = 255
	}

	for _, ov := range c.overviews {
		res := c.cache.Get(ov.Path)
		if res.State() != dataset.Loaded {
			continue
		}
		clearPix(c.layerBuf.Pix)
		src := res.Image()
		tl := tr.ContentToScreen(geom.Pt(0, 0))
		br := tr.ContentToScreen(geom.Pt(grid.Width, grid.Height))
		r := image.Rect(
			int(math.Round(tl.X*pixelRatio)), int(math.Round(tl.Y*pixelRatio)),
			int(math.Round(br.X*pixelRatio)), int(math.Round(br.Y*pixelRatio)),
		)
		xdraw.ApproxBiLinear.Scale(c.layerBuf, r, src, src.Bounds(), xdraw.Src, nil)
		MaxTinted(c.frame, c.layerBuf, ov.Tint)
	}

	for _, l := range layers {
		if !l.Visible {
			continue
		}
		clearPix(c.layerBuf.Pix)

		dirs := l.SubsetDirs()
		if len(dirs) == 1 {
			PaintTiles(c.layerBuf, c.cache, l.Root(), dirs[0], l.Levels(), tr, pixelRatio)
		} else {
			for _, dir := range dirs {
				clearPix(c.subsetBuf.Pix)
				PaintTiles(c.subsetBuf, c.cache, l.Root(), dir, l.Levels(), tr, pixelRatio)
				Blend(c.layerBuf, c.subsetBuf, l.Mode())
			}
		}

		ApplyUpperCutoff(c.layerBuf, l.Cutoff)
		ApplyLowerCutoff(c.layerBuf, l.LowerCutoff)
		ApplyFloor(c.layerBuf, l.Floor)
		AccumulateTinted(c.frame, c.layerBuf, l.Color)
	}

	return c.frame
}

func (c *Compositor) ensure(w, h int) {
	if c.frame != nil && c.frame.Bounds().Dx() == w && c.frame.Bounds().Dy() == h {
		return
	}
	r := image.Rect(0, 0, w, h)
	c.frame = image.NewRGBA(r)
	c.layerBuf = image.NewGray(r)
	c.subsetBuf = image.NewGray(r)
}
