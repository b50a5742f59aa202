// Package geo provides the planar angle helpers shared by the targeting code.
// All bearings are radians measured from the ship, normalized to [0, 2π).
package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// Normalize maps any finite angle into [0, 2π).
func Normalize(r float64) float64 {
	n := math.Mod(r, TwoPi)
	if n < 0 {
		n += TwoPi
	}
	// math.Mod can return TwoPi for tiny negative inputs after the shift above.
	if n >= TwoPi {
		n = 0
	}
	return n
}

// Delta returns the signed shortest rotation from a to b, in (-π, π].
func Delta(a, b float64) float64 {
	d := Normalize(b - a)
	if d > math.Pi {
		d -= TwoPi
	}
	return d
}

// Separation returns the unsigned shortest angle between a and b, in [0, π].
func Separation(a, b float64) float64 {
	return math.Abs(Delta(a, b))
}

// AngularRadius returns the half-angle subtended by a body of the given radius
// at the given distance. ok is false when distance is not positive.
func AngularRadius(radius, distance float64) (angle float64, ok bool) {
	if distance <= 0 {
		return 0, false
	}
	return math.Atan(radius / distance), true
}

// PolarPoint converts a bearing and distance into a ship-centric XY point.
func PolarPoint(bearing, distance float64) geom.Point {
	return geom.XY{
		X: distance * math.Cos(bearing),
		Y: distance * math.Sin(bearing),
	}.AsPoint()
}
