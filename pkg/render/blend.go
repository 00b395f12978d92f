// Package render turns the viewport state, the tile caches and the layer
// list into a finished frame. All compositing happens in software on plain
// pixel buffers: each layer accumulates its subset tiles into a grayscale
// scratch image, transfer functions reshape the values, and the result is
// tinted with the layer color and added into the RGBA frame. The driver
// only has to blit the frame and draw the vector overlay on top.
package render

import (
	"image"
	"image/color"
)

// BlendMode selects the per-pixel combining rule for grayscale buffers.
type BlendMode int

const (
	// Replace overwrites the destination.
	Replace BlendMode = iota
	// Add sums with saturation. Used for count-like data where subsets
	// stack (a density tile plus another density tile).
	Add
	// Max keeps the brighter value. Used for value-like data where summing
	// would be meaningless (a year is not twice a year).
	Max
	// Multiply scales the destination by the source, treating 255 as one.
	// Masks one buffer by another.
	Multiply
)

// Blend combines src into dst with the given mode. Only the overlapping
// region is touched; the images are expected to share the same origin.
func Blend(dst, src *image.Gray, mode BlendMode) {
	b := dst.Bounds().Intersect(src.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		di := dst.PixOffset(b.Min.X, y)
		si := src.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			s := src.Pix[si]
			switch mode {
			case Replace:
				dst.Pix[di] = s
			case Add:
				v := uint16(dst.Pix[di]) + uint16(s)
				if v > 255 {
					v = 255
				}
				dst.Pix[di] = uint8(v)
			case Max:
				if s > dst.Pix[di] {
					dst.Pix[di] = s
				}
			case Multiply:
				dst.Pix[di] = uint8(uint16(dst.Pix[di]) * uint16(s) / 255)
			}
			di++
			si++
		}
	}
}

// AccumulateTinted adds src, tinted by the layer color, into the RGBA
// frame with saturation. The frame stays fully opaque.
func AccumulateTinted(dst *image.RGBA, src *image.Gray, tint color.RGBA) {
	compositeTinted(dst, src, tint, Add)
}

// MaxTinted merges src, tinted, into the frame keeping the brighter
// channel values. Used for the static overview backdrop so it never
// washes out loaded tiles.
func MaxTinted(dst *image.RGBA, src *image.Gray, tint color.RGBA) {
	compositeTinted(dst, src, tint, Max)
}

func compositeTinted(dst *image.RGBA, src *image.Gray, tint color.RGBA, mode BlendMode) {
	b := dst.Bounds().Intersect(src.Bounds())
	tr, tg, tb := uint32(tint.R), uint32(tint.G), uint32(tint.B)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		di := dst.PixOffset(b.Min.X, y)
		si := src.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			v := uint32(src.Pix[si])
			r := uint8(v * tr / 255)
			g := uint8(v * tg / 255)
			bl := uint8(v * tb / 255)
			switch mode {
			case Max:
				if r > dst.Pix[di] {
					dst.Pix[di] = r
				}
				if g > dst.Pix[di+1] {
					dst.Pix[di+1] = g
				}
				if bl > dst.Pix[di+2] {
					dst.Pix[di+2] = bl
				}
			default:
				dst.Pix[di] = satAdd(dst.Pix[di], r)
				dst.Pix[di+1] = satAdd(dst.Pix[di+1], g)
				dst.Pix[di+2] = satAdd(dst.Pix[di+2], bl)
			}
			dst.Pix[di+3] = 255
			di += 4
			si++
		}
	}
}

func satAdd(a, b uint8) uint8 {
	v := uint16(a) + uint16(b)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// clearPix zeroes a pixel buffer.
func clearPix(pix []uint8) {
	for i := range pix {
		pix[i] = 0
	}
}
