package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation in w + xi + yj + zk form. Producers must
// supply normalized values; nothing in this package renormalizes.
type Quaternion struct {
	W float64
	X float64
	Y float64
	Z float64
}

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// QuaternionFromYaw returns the quaternion for a rotation of yaw
// radians around the z-axis (roll and pitch zero).
func QuaternionFromYaw(yaw float64) Quaternion {
	sin, cos := math.Sincos(yaw / 2)
	return Quaternion{W: cos, Z: sin}
}

// Yaw extracts the rotation around the z-axis in radians, in (-pi, pi].
func (q Quaternion) Yaw() float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

// Mul returns the composition q*r (r applied first).
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), r.number()))
}

// Conj returns the conjugate, which for unit quaternions is the
// inverse rotation.
func (q Quaternion) Conj() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Rotate applies the rotation to p.
func (q Quaternion) Rotate(p Point) Point {
	n := q.number()
	v := quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}
	r := quat.Mul(quat.Mul(n, v), quat.Conj(n))
	return Point{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// RotateInverse applies the inverse rotation to p.
func (q Quaternion) RotateInverse(p Point) Point {
	return q.Conj().Rotate(p)
}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// NormalizeAngle wraps an angle in radians into (-pi, pi].
func NormalizeAngle(rad float64) float64 {
	res := rad
	for res > math.Pi {
		res -= 2.0 * math.Pi
	}
	for res < -math.Pi {
		res += 2.0 * math.Pi
	}
	return res
}
