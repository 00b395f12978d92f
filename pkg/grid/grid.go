// Package grid implements the decimal addressing scheme of the ISBN plane.
//
// The content rectangle is 50,000 x 40,000 units, one unit per ISBN. It is
// tiled by a fixed 5x4 array of 10,000 x 10,000 blocks; a block's two-digit
// identifier equals the first two digits of every ISBN inside it. Within a
// block, raster tiles exist at a handful of subdivision levels ("divisors"),
// and any content point resolves to a decimal prefix by interleaving digits
// of its y and x coordinates.
package grid

import (
	"fmt"
	"math"

	"github.com/conundrumer/all-isbns/pkg/geom"
)

// Content-space dimensions. One unit per ISBN position.
const (
	Width     = 50000
	Height    = 40000
	BlockSize = 10000
	BlocksX   = 5
	BlocksY   = 4
)

// ContentRect is the full content rectangle.
var ContentRect = geom.Rect{X: 0, Y: 0, W: Width, H: Height}

// BlockID returns the two-character identifier of the block at block
// coordinates (bx, by). The formula folds the 5x4 arrangement back into the
// leading two ISBN digits: row digit from floor(by/2), column digit from
// bx plus 5 for odd rows.
func BlockID(bx, by int) string {
	return fmt.Sprintf("%d%d", by/2, bx+(by%2)*5)
}

// BlockAt returns the block coordinates covering the content point (x, y).
// Points outside the content rectangle clamp to the nearest block.
func BlockAt(x, y float64) (bx, by int) {
	bx = int(math.Floor(x / BlockSize))
	by = int(math.Floor(y / BlockSize))
	bx = clampInt(bx, 0, BlocksX-1)
	by = clampInt(by, 0, BlocksY-1)
	return bx, by
}

// Tile is one fixed raster tile: its identifier plus its content-space
// origin. Tiles are pure values derived from (block, divisor, row, col);
// they are never mutated.
type Tile struct {
	ID string
	X  float64
	Y  float64
}

// TileSize returns the content-space edge length of a tile at the given
// divisor.
func TileSize(divisor int) float64 {
	return BlockSize / float64(divisor)
}

// TilesIn enumerates every tile at the given divisor that overlaps the
// content-space query rectangle, clamped to the 5x4 block array. The result
// is ordered block by block, row-major within each block, and is the single
// source of truth for which tile covers a point: a point strictly inside a
// tile never appears in any other tile at that divisor.
func TilesIn(query geom.Rect, divisor int) []Tile {
	var tiles []Tile
	size := TileSize(divisor)

	bx0, by0 := BlockAt(query.X, query.Y)
	bx1, by1 := BlockAt(query.MaxX(), query.MaxY())

	for by := by0; by <= by1; by++ {
		for bx := bx0; bx <= bx1; bx++ {
			ox := float64(bx * BlockSize)
			oy := float64(by * BlockSize)

			c0 := clampInt(int(math.Floor((query.X-ox)/size)), 0, divisor-1)
			c1 := clampInt(int(math.Floor((query.MaxX()-ox)/size)), 0, divisor-1)
			r0 := clampInt(int(math.Floor((query.Y-oy)/size)), 0, divisor-1)
			r1 := clampInt(int(math.Floor((query.MaxY()-oy)/size)), 0, divisor-1)

			id := BlockID(bx, by)
			for r := r0; r <= r1; r++ {
				for c := c0; c <= c1; c++ {
					tiles = append(tiles, Tile{
						ID: fmt.Sprintf("%d_%s_%d_%d", divisor, id, r, c),
						X:  ox + float64(c)*size,
						Y:  oy + float64(r)*size,
					})
				}
			}
		}
	}
	return tiles
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
