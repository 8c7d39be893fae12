package lane

import (
	"math"

	"github.com/banshee-data/lanetrack/internal/geom"
)

// YawAt estimates the heading of waypoint i in radians from the lane
// geometry around it, honoring reversed traversal: a segment whose
// governing waypoint has negative velocity contributes its bearing
// rotated by pi.
//
// Interior waypoints blend the incoming and outgoing segment bearings
// at half the normalized difference, unless the two bearings are
// opposed (|difference| >= pi), in which case the outgoing bearing
// wins. Boundary waypoints use their single adjacent segment. When the
// lane is too short for any segment the stored orientation's yaw is
// returned, and an out-of-range i yields 0.
func YawAt(l *Lane, i int) float64 {
	if i < 0 || i >= l.Len() {
		return 0
	}
	yaw := l.Orientation(i).Yaw()

	switch {
	case i > 0 && i < l.Len()-1:
		behind := segmentBearing(l, i-1, i)
		front := segmentBearing(l, i, i+1)
		if l.VelocityAt(i) < 0 {
			behind = geom.NormalizeAngle(behind + math.Pi)
		}
		if l.VelocityAt(i+1) < 0 {
			front = geom.NormalizeAngle(front + math.Pi)
		}
		diff := geom.NormalizeAngle(front - behind)
		if math.Abs(diff) < math.Pi {
			yaw = geom.NormalizeAngle(behind + diff/2)
		} else {
			yaw = front
		}
	case i > 0:
		behind := segmentBearing(l, i-1, i)
		if l.VelocityAt(i) < 0 {
			behind = geom.NormalizeAngle(behind + math.Pi)
		}
		yaw = behind
	case i < l.Len()-1:
		front := segmentBearing(l, i, i+1)
		if l.VelocityAt(i+1) < 0 {
			front = geom.NormalizeAngle(front + math.Pi)
		}
		yaw = front
	}
	return yaw
}

// segmentBearing returns the planar bearing of the segment from
// waypoint a to waypoint b.
func segmentBearing(l *Lane, a, b int) float64 {
	pa := l.Position(a)
	pb := l.Position(b)
	return math.Atan2(pb.Y-pa.Y, pb.X-pa.X)
}
