package grid

import (
	"math"

	"github.com/conundrumer/all-isbns/pkg/geom"
)

// PrefixAt derives the ISBN prefix of exactly `digits` characters covering
// the content point (x, y). The first two digits are the block identifier;
// the rest interleave decimal digits of the point's offset within the block,
// most significant first — even digit positions read from y, odd from x.
// This is the single source of truth for prefix derivation: highlights,
// labels, and spatial-index queries all go through it.
//
// digits must be in [2, 10]. Points outside the content rectangle clamp to
// its edge so a prefix is always produced.
func PrefixAt(x, y float64, digits int) string {
	if digits < 2 {
		digits = 2
	}
	if digits > 10 {
		digits = 10
	}

	xi := clampInt(int(math.Floor(x)), 0, Width-1)
	yi := clampInt(int(math.Floor(y)), 0, Height-1)

	bx := xi / BlockSize
	by := yi / BlockSize

	buf := make([]byte, digits)
	buf[0] = byte('0' + by/2)
	buf[1] = byte('0' + bx+(by%2)*5)

	lx := xi % BlockSize
	ly := yi % BlockSize
	place := 1000
	for i := 2; i < digits; i++ {
		if i%2 == 0 {
			buf[i] = byte('0' + (ly/place)%10)
		} else {
			buf[i] = byte('0' + (lx/place)%10)
			place /= 10
		}
	}
	return string(buf)
}

// PrefixRect returns the content-space rectangle covered by an ISBN prefix.
// It is the inverse of PrefixAt: every point inside the rectangle derives
// the given prefix at that digit depth.
func PrefixRect(prefix string) geom.Rect {
	x, y := 0, 0
	place := BlockSize
	w, h := Width, Height
	for i := 0; i < len(prefix); i++ {
		d := int(prefix[i] - '0')
		switch {
		case i == 0:
			y = d * 2 * BlockSize
			h = 2 * BlockSize
		case i == 1:
			x = (d % 5) * BlockSize
			y += d / 5 * BlockSize
			w, h = BlockSize, BlockSize
		case i%2 == 0:
			y += d * place
			h = place
		default:
			x += d * place
			w = place
			place /= 10
		}
	}
	return geom.Rect{X: float64(x), Y: float64(y), W: float64(w), H: float64(h)}
}
