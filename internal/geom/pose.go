package geom

import "math"

// Pose is a position plus orientation in the world frame. It doubles as
// a frame definition: the frame whose origin is Position and whose
// x-axis points along the orientation's heading.
type Pose struct {
	Position    Point
	Orientation Quaternion
}

// Saturation sentinels for steering geometry. A target directly ahead
// or behind implies an infinite turning radius; rather than overflow,
// Radius and Curvature saturate at these values.
const (
	RadiusMax    = 1e9 // meters
	CurvatureMax = 1e9 // 1/meters
)

// Yaw returns the pose heading in radians, in (-pi, pi].
func (p Pose) Yaw() float64 {
	return p.Orientation.Yaw()
}

// ToRelative2D expresses point in the frame of origin using only the
// origin's yaw: translation followed by rotation by -yaw. The z of the
// result is the origin's z. Exact inverse of ToAbsolute2D in the plane.
func ToRelative2D(point Point, origin Pose) Point {
	tx := point.X - origin.Position.X
	ty := point.Y - origin.Position.Y

	sin, cos := math.Sincos(origin.Yaw())
	return Point{
		X: cos*tx + sin*ty,
		Y: -sin*tx + cos*ty,
		Z: origin.Position.Z,
	}
}

// ToAbsolute2D expresses a point given in the frame of origin back in
// the world frame: rotation by yaw followed by translation. The z of
// the result is the origin's z.
func ToAbsolute2D(point Point, origin Pose) Point {
	sin, cos := math.Sincos(origin.Yaw())
	rx := cos*point.X - sin*point.Y
	ry := sin*point.X + cos*point.Y

	return Point{
		X: rx + origin.Position.X,
		Y: ry + origin.Position.Y,
		Z: origin.Position.Z,
	}
}

// ToRelative3D expresses point in the frame of origin using the full
// orientation quaternion. Exact inverse of ToAbsolute3D on all three
// axes.
func ToRelative3D(point Point, origin Pose) Point {
	t := Point{
		X: point.X - origin.Position.X,
		Y: point.Y - origin.Position.Y,
		Z: point.Z - origin.Position.Z,
	}
	return origin.Orientation.RotateInverse(t)
}

// ToAbsolute3D expresses a point given in the frame of origin back in
// the world frame using the full orientation quaternion.
func ToAbsolute3D(point Point, origin Pose) Point {
	r := origin.Orientation.Rotate(point)
	return Point{
		X: r.X + origin.Position.X,
		Y: r.Y + origin.Position.Y,
		Z: r.Z + origin.Position.Z,
	}
}

// RelativePose expresses target in the frame of current: the transform
// that current would apply to reach target.
func RelativePose(current, target Pose) Pose {
	return Pose{
		Position:    ToRelative3D(target.Position, current),
		Orientation: current.Orientation.Conj().Mul(target.Orientation),
	}
}

// RelativeAngleDeg returns the angle in degrees between the vehicle's
// heading and the heading of waypointPose, both expressed in the
// vehicle frame. The result is in [0, 180]; it carries no sign.
func RelativeAngleDeg(waypointPose, vehiclePose Pose) float64 {
	p1 := ToRelative3D(waypointPose.Position, vehiclePose)
	// A unit step along the waypoint's x-axis, seen from the vehicle.
	ahead := ToAbsolute3D(Point{X: 1}, waypointPose)
	p2 := ToRelative3D(ahead, vehiclePose)

	vx := p2.X - p1.X
	vy := p2.Y - p1.Y
	vz := p2.Z - p1.Z
	length := math.Sqrt(vx*vx + vy*vy + vz*vz)

	// Angle against the vehicle x-axis (1,0,0) reduces to acos of the
	// normalized x component.
	cos := vx / length
	cos = math.Max(-1, math.Min(1, cos))
	return Rad2Deg(math.Acos(cos))
}

// Radius returns the turning radius in meters implied by steering from
// pose toward target: squared planar distance over twice the lateral
// offset of target in the pose frame. A target with zero lateral
// offset returns RadiusMax. The sign follows the lateral offset:
// positive for a target to the left.
func Radius(target Point, pose Pose) float64 {
	denominator := 2.0 * ToRelative2D(target, pose).Y
	numerator := DistSquared2D(target, pose.Position)

	if math.Abs(denominator) > 0 {
		return numerator / denominator
	}
	return RadiusMax
}

// Curvature returns 1/Radius, saturating at CurvatureMax when the
// radius is zero.
func Curvature(target Point, pose Pose) float64 {
	radius := Radius(target, pose)
	if math.Abs(radius) > 0 {
		return 1.0 / radius
	}
	return CurvatureMax
}
