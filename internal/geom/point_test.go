package geom

import (
	"math"
	"testing"
)

func TestDistSquared2D_IgnoresZ(t *testing.T) {
	p := Point{X: 0, Y: 0, Z: 100}
	q := Point{X: 3, Y: 4, Z: -100}
	if got := DistSquared2D(p, q); got != 25 {
		t.Errorf("expected 25, got %v", got)
	}
	if got := PlaneDistance(p, q); got != 5 {
		t.Errorf("expected 5, got %v", got)
	}
}

func TestLateralError2D_Sign(t *testing.T) {
	start := Point{X: 0, Y: 0}
	end := Point{X: 1, Y: 0}

	left := LateralError2D(start, end, Point{X: 0.5, Y: 1})
	if !almostEqual(left, 1, eps) {
		t.Errorf("point left of the line: expected +1, got %v", left)
	}

	right := LateralError2D(start, end, Point{X: 0.5, Y: -1})
	if !almostEqual(right, -1, eps) {
		t.Errorf("point right of the line: expected -1, got %v", right)
	}
}

func TestLateralError2D_ZeroLengthSegment(t *testing.T) {
	p := Point{X: 2, Y: 2}
	if got := LateralError2D(p, p, Point{X: 5, Y: 5}); got != 0 {
		t.Errorf("expected 0 for zero-length segment, got %v", got)
	}
}

func TestLateralError2D_OnLine(t *testing.T) {
	got := LateralError2D(Point{}, Point{X: 2, Y: 2}, Point{X: 1, Y: 1})
	if !almostEqual(got, 0, eps) {
		t.Errorf("expected 0 on the line, got %v", got)
	}
}

func TestLinearEquation_Degenerate(t *testing.T) {
	p := Point{X: 1, Y: 1}
	q := Point{X: 1 + 1e-6, Y: 1 - 1e-6}
	if _, _, _, ok := LinearEquation(p, q); ok {
		t.Error("expected ok=false for near-coincident points")
	}
}

func TestLinearEquation_DistanceToLine(t *testing.T) {
	// Horizontal line y=0; point at height 2.
	a, b, c, ok := LinearEquation(Point{X: 0, Y: 0}, Point{X: 10, Y: 0})
	if !ok {
		t.Fatal("expected a valid line")
	}
	if got := DistanceLineToPoint(Point{X: 5, Y: 2}, a, b, c); !almostEqual(got, 2, eps) {
		t.Errorf("expected distance 2, got %v", got)
	}
}

func TestLinearEquation_VerticalLine(t *testing.T) {
	a, b, c, ok := LinearEquation(Point{X: 3, Y: 0}, Point{X: 3, Y: 5})
	if !ok {
		t.Fatal("expected a valid line")
	}
	if got := DistanceLineToPoint(Point{X: 0, Y: 2}, a, b, c); !almostEqual(got, 3, eps) {
		t.Errorf("expected distance 3, got %v", got)
	}
}

func TestRotatePoint_Quarter(t *testing.T) {
	got := RotatePoint(Point{X: 1, Y: 0}, 90)
	if !almostEqual(got.X, 0, eps) || !almostEqual(got.Y, 1, eps) {
		t.Errorf("expected (0,1), got (%v,%v)", got.X, got.Y)
	}
}

func TestRotateUnitVector_StaysUnit(t *testing.T) {
	got := RotateUnitVector(Point{X: 1, Y: 0}, 30)
	length := math.Hypot(got.X, got.Y)
	if !almostEqual(length, 1, eps) {
		t.Errorf("expected unit length, got %v", length)
	}
	if !almostEqual(got.X, math.Cos(Deg2Rad(30)), eps) {
		t.Errorf("expected x=cos(30deg), got %v", got.X)
	}
}

func TestQuaternionFromYaw_RoundTrip(t *testing.T) {
	for _, yaw := range []float64{0, 0.5, -0.5, math.Pi / 2, -math.Pi / 2, 3, -3} {
		q := QuaternionFromYaw(yaw)
		if got := q.Yaw(); !almostEqual(got, yaw, eps) {
			t.Errorf("yaw %v round-tripped to %v", yaw, got)
		}
	}
}

func TestQuaternionRotate_Yaw(t *testing.T) {
	q := QuaternionFromYaw(math.Pi / 2)
	got := q.Rotate(Point{X: 1})
	if !pointsAlmostEqual(got, Point{Y: 1}, eps) {
		t.Errorf("expected (0,1,0), got %+v", got)
	}
	back := q.RotateInverse(got)
	if !pointsAlmostEqual(back, Point{X: 1}, eps) {
		t.Errorf("inverse rotation expected (1,0,0), got %+v", back)
	}
}
