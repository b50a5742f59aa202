package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Range(t *testing.T) {
	inputs := []float64{0, 1, -1, math.Pi, TwoPi, -TwoPi, 7 * math.Pi, -13.5, 1e6, -1e-18}
	for _, in := range inputs {
		got := Normalize(in)
		assert.GreaterOrEqual(t, got, 0.0, "input %v", in)
		assert.Less(t, got, TwoPi, "input %v", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []float64{-7.3, -0.2, 0, 0.5, 3.9, 6.5, 100.25} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %v", in)
	}
}

func TestNormalize_Values(t *testing.T) {
	assert.InDelta(t, 1.4, Normalize(1.4), 1e-12)
	assert.InDelta(t, TwoPi-0.5, Normalize(-0.5), 1e-12)
	assert.InDelta(t, 0.25, Normalize(TwoPi+0.25), 1e-12)
	assert.Equal(t, 0.0, Normalize(TwoPi))
}

func TestDelta(t *testing.T) {
	assert.InDelta(t, 0.2, Delta(1.0, 1.2), 1e-12)
	assert.InDelta(t, -0.2, Delta(1.2, 1.0), 1e-12)
	// across the seam
	assert.InDelta(t, 0.2, Delta(TwoPi-0.1, 0.1), 1e-12)
	assert.InDelta(t, -0.2, Delta(0.1, TwoPi-0.1), 1e-12)
}

func TestSeparation(t *testing.T) {
	assert.InDelta(t, 0.2, Separation(TwoPi-0.1, 0.1), 1e-12)
	assert.InDelta(t, math.Pi, Separation(0, math.Pi), 1e-12)
	assert.Equal(t, 0.0, Separation(2, 2))
}

func TestAngularRadius(t *testing.T) {
	a, ok := AngularRadius(1, 10)
	assert.True(t, ok)
	assert.InDelta(t, 0.0997, a, 1e-4)
	assert.InDelta(t, math.Atan(0.1), a, 1e-12)

	_, ok = AngularRadius(1, 0)
	assert.False(t, ok)
	_, ok = AngularRadius(1, -3)
	assert.False(t, ok)
}

func TestPolarPoint(t *testing.T) {
	p := PolarPoint(math.Pi/2, 10)
	xy, ok := p.XY()
	assert.True(t, ok)
	assert.InDelta(t, 0, xy.X, 1e-9)
	assert.InDelta(t, 10, xy.Y, 1e-9)
}
