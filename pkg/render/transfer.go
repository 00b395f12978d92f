package render

import "image"

// Transfer functions reshape a layer's grayscale values after tile
// accumulation and before tinting. Zero pixels stay zero throughout:
// "no record" must remain black no matter how the curve is bent.

// ApplyUpperCutoff rescales values so that cutoff maps to full white.
// Everything at or above the cutoff clips; the gradient below it
// stretches. A zero cutoff disables the function.
func ApplyUpperCutoff(img *image.Gray, cutoff uint8) {
	if cutoff == 0 {
		return
	}
	var lut [256]uint8
	for v := 1; v < 256; v++ {
		out := v * 255 / int(cutoff)
		if out > 255 {
			out = 255
		}
		lut[v] = uint8(out)
	}
	applyLUT(img, &lut)
}

// ApplyLowerCutoff lightens the gradient below the cutoff: values under
// it move halfway toward it, values at or above it pass through. The
// curve stays monotonic and continuous at the cutoff. A zero cutoff
// disables the function.
func ApplyLowerCutoff(img *image.Gray, cutoff uint8) {
	if cutoff == 0 {
		return
	}
	var lut [256]uint8
	c := int(cutoff)
	for v := 1; v < 256; v++ {
		if v < c {
			lut[v] = uint8((v + c) / 2)
		} else {
			lut[v] = uint8(v)
		}
	}
	applyLUT(img, &lut)
}

// ApplyFloor lifts every nonzero value onto the range [floor, 255] so
// sparse single-count pixels stay visible when zoomed far out. A zero
// floor disables the function.
func ApplyFloor(img *image.Gray, floor uint8) {
	if floor == 0 {
		return
	}
	var lut [256]uint8
	f := int(floor)
	for v := 1; v < 256; v++ {
		lut[v] = uint8(f + (255-f)*v/255)
	}
	applyLUT(img, &lut)
}

func applyLUT(img *image.Gray, lut *[256]uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Pix[i] = lut[img.Pix[i]]
			i++
		}
	}
}
