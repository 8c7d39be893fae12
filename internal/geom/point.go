package geom

import "math"

// Point is a position in meters. The frame (world or pose-relative) is
// implied by use; functions in this package state which they expect.
type Point struct {
	X float64
	Y float64
	Z float64
}

// DegenerateEps is the coordinate delta below which two points are
// treated as coincident when deriving a line through them (meters).
const DegenerateEps = 1e-5

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// DistSquared2D returns the squared distance between p and q in the
// xy-plane. Z is ignored.
func DistSquared2D(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// PlaneDistance returns the distance between p and q in the xy-plane.
// Z is ignored.
func PlaneDistance(p, q Point) float64 {
	return math.Sqrt(DistSquared2D(p, q))
}

// LateralError2D returns the signed perpendicular offset of point from
// the infinite line through lineStart and lineEnd, in the xy-plane.
// The sign is positive when point lies to the left of the start->end
// direction. Returns 0 when the segment has zero length.
func LateralError2D(lineStart, lineEnd, point Point) float64 {
	ax := lineEnd.X - lineStart.X
	ay := lineEnd.Y - lineStart.Y
	bx := point.X - lineStart.X
	by := point.Y - lineStart.Y

	length := math.Hypot(ax, ay)
	if length <= 0 {
		return 0
	}
	// z component of the 2D cross product a x b.
	return (ax*by - ay*bx) / length
}

// LinearEquation derives the coefficients of the line "ax + by + c = 0"
// through start and end. ok is false when the two points are closer
// than DegenerateEps on both axes and no line is defined.
func LinearEquation(start, end Point) (a, b, c float64, ok bool) {
	subX := math.Abs(start.X - end.X)
	subY := math.Abs(start.Y - end.Y)
	if subX < DegenerateEps && subY < DegenerateEps {
		return 0, 0, 0, false
	}

	a = end.Y - start.Y
	b = -(end.X - start.X)
	c = -(end.Y-start.Y)*start.X + (end.X-start.X)*start.Y
	return a, b, c, true
}

// DistanceLineToPoint returns the distance from point to the line
// "ax + by + c = 0". The coefficients must describe a real line
// (a and b not both zero), as produced by LinearEquation.
func DistanceLineToPoint(point Point, a, b, c float64) float64 {
	return math.Abs(a*point.X+b*point.Y+c) / math.Sqrt(a*a+b*b)
}

// RotatePoint rotates point around the z-axis by the given angle in
// degrees, counterclockwise. Z is dropped.
func RotatePoint(p Point, degree float64) Point {
	rad := Deg2Rad(degree)
	sin, cos := math.Sincos(rad)
	return Point{
		X: cos*p.X - sin*p.Y,
		Y: sin*p.X + cos*p.Y,
	}
}

// RotateUnitVector rotates the planar unit vector v by the given angle
// in degrees and renormalizes the result.
func RotateUnitVector(v Point, degree float64) Point {
	w := RotatePoint(v, degree)
	length := math.Hypot(w.X, w.Y)
	return Point{X: w.X / length, Y: w.Y / length}
}
