package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

// #region point-tests
func TestPoint_Coordinates(t *testing.T) {
	p := Point{2.5, -7}
	assert.Equal(t, 2.5, p.X())
	assert.Equal(t, -7.0, p.Y())
}

// #endregion point-tests

// #region distance-tests
func TestDistance_SamePointIsZero(t *testing.T) {
	a := Point{2.5, -7}
	assert.Equal(t, 0.0, Distance(a, a))
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{1, 2}
	b := Point{-4, 9.5}
	assert.InDelta(t, Distance(a, b), Distance(b, a), eps)
}

func TestDistance_ThreeFourFive(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Point{0, 0}, Point{3, 4}), eps)
}

func TestDistance_NonNegative(t *testing.T) {
	pts := []Point{{0, 0}, {-1, -1}, {3, -2}, {100, 0.5}}
	for _, a := range pts {
		for _, b := range pts {
			assert.GreaterOrEqual(t, Distance(a, b), 0.0)
		}
	}
}

// #endregion distance-tests

// #region normalize-tests
func TestNormalizeAngularDifference(t *testing.T) {
	cases := []struct {
		diff float64
		want float64
	}{
		{0, 0},
		{180, 180},
		{190, 170},
		{-170, 170},
		{350, 10},
		{-350, 10},
		{-180, 180},
		{720, 0},
		{-540, 180},
		{45.5, 45.5},
	}
	for _, c := range cases {
		got := NormalizeAngularDifference(c.diff)
		assert.InDeltaf(t, c.want, got, eps, "diff=%v", c.diff)
	}
}

func TestNormalizeAngularDifference_Range(t *testing.T) {
	for d := -1000.0; d <= 1000.0; d += 7.3 {
		got := NormalizeAngularDifference(d)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 180.0)
	}
}

// #endregion normalize-tests

// #region direction-tests
func TestTrackDirection_Cardinal(t *testing.T) {
	origin := Point{0, 0}
	assert.InDelta(t, 0.0, TrackDirection(origin, Point{1, 0}), eps)
	assert.InDelta(t, 90.0, TrackDirection(origin, Point{0, 1}), eps)
	assert.InDelta(t, 180.0, TrackDirection(origin, Point{-1, 0}), eps)
	assert.InDelta(t, -90.0, TrackDirection(origin, Point{0, -1}), eps)
}

func TestTrackDirection_Diagonal(t *testing.T) {
	assert.InDelta(t, 45.0, TrackDirection(Point{1, 1}, Point{3, 3}), eps)
	assert.InDelta(t, -135.0, TrackDirection(Point{0, 0}, Point{-2, -2}), eps)
}

// #endregion direction-tests

// #region fold-tests

// FoldDirectionDifference expects |a-b| for a, b in [-180, 180].
func TestFoldDirectionDifference_PreNormalizedInputs(t *testing.T) {
	angles := []float64{-180, -135, -90, -10, 0, 10, 90, 135, 180}
	for _, a := range angles {
		for _, b := range angles {
			got := FoldDirectionDifference(math.Abs(a - b))
			assert.InDeltaf(t, NormalizeAngularDifference(a-b), got, eps, "a=%v b=%v", a, b)
		}
	}
}

// Outside the precondition the fold disagrees with full normalization.
func TestFoldDirectionDifference_OutOfRangeDiverges(t *testing.T) {
	diff := math.Abs(0 - 400.0)
	assert.InDelta(t, -40.0, FoldDirectionDifference(diff), eps)
	assert.InDelta(t, 40.0, NormalizeAngularDifference(0-400.0), eps)
}

// #endregion fold-tests
