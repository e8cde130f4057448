package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// #region point
// Point is an (x, y) position in track coordinates, in meters.
// Serialized as a two-element JSON array to match the simulator's tuples.
type Point [2]float64

// X returns the x coordinate.
func (p Point) X() float64 { return p[0] }

// Y returns the y coordinate.
func (p Point) Y() float64 { return p[1] }

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X(), Y: p.Y()}
}

// #endregion point

// #region distance
// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(b.vec(), a.vec()))
}

// #endregion distance

// #region angles
// NormalizeAngularDifference maps any difference in degrees onto [0, 180].
// Uses a floored modulo so negative differences wrap correctly.
func NormalizeAngularDifference(diff float64) float64 {
	return math.Abs(floorMod(diff+180, 360) - 180)
}

// TrackDirection returns the bearing from a to b in degrees, in (-180, 180].
func TrackDirection(a, b Point) float64 {
	d := r2.Sub(b.vec(), a.vec())
	return math.Atan2(d.Y, d.X) * 180 / math.Pi
}

// FoldDirectionDifference folds an absolute difference of two angles onto
// [0, 180] by reflecting values above 180.
// Only correct when both source angles lie in [-180, 180], so diff is in [0, 360].
func FoldDirectionDifference(diff float64) float64 {
	if diff > 180 {
		return 360 - diff
	}
	return diff
}

// floorMod returns x mod m with the sign of m.
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// #endregion angles
