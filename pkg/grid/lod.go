package grid

import "math"

// Level pairs a block subdivision count with the downsampling factor the
// offline pipeline rendered that level at. A divisor-d tile spans 10000/d
// content units and holds 10000/(d*factor) pixels per edge, so one tile
// pixel covers `factor` content units.
type Level struct {
	Divisor int
	Factor  int
}

// SetLevels are the resolution tiers rendered for plain dataset tiles.
var SetLevels = []Level{
	{Divisor: 1, Factor: 50},
	{Divisor: 2, Factor: 25},
	{Divisor: 5, Factor: 10},
	{Divisor: 10, Factor: 5},
	{Divisor: 20, Factor: 1},
}

// PropLevels are the denser tiers rendered for numeric-property datasets
// (publication year, holdings count).
var PropLevels = []Level{
	{Divisor: 1, Factor: 50},
	{Divisor: 2, Factor: 25},
	{Divisor: 5, Factor: 10},
	{Divisor: 10, Factor: 5},
	{Divisor: 20, Factor: 2},
	{Divisor: 50, Factor: 1},
}

// SelectLevel returns the index of the level whose tiles render closest to
// native pixel density at the given camera scale: one tile pixel occupies
// scale*factor screen pixels, so the level minimizing |scale*factor - 1|
// wins. Ties keep the earlier (coarser) entry, matching the declared table
// order.
func SelectLevel(levels []Level, scale float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, l := range levels {
		d := math.Abs(scale*float64(l.Factor) - 1)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
