package lane

import (
	"fmt"
	"math"

	"github.com/banshee-data/lanetrack/internal/geom"
)

// Waypoint is one step of a lane: a pose plus the target velocity at
// that pose. The sign of the velocity encodes intent; negative means
// the vehicle is expected to traverse this waypoint in reverse.
type Waypoint struct {
	Pose        geom.Pose
	VelocityMPS float64
}

// Lane is an ordered list of waypoints. Insertion order is traversal
// order. Callers hand a Lane to the tracker and must not mutate it
// while it is being tracked.
type Lane struct {
	Name      string
	Waypoints []Waypoint
}

// Len returns the number of waypoints.
func (l *Lane) Len() int {
	return len(l.Waypoints)
}

// Interval returns the planar distance between the first two
// waypoints, or 0 when the lane has fewer than two.
func (l *Lane) Interval() float64 {
	if len(l.Waypoints) < 2 {
		return 0
	}
	return geom.PlaneDistance(l.Waypoints[0].Pose.Position, l.Waypoints[1].Pose.Position)
}

// Position returns the position of waypoint i, or the zero point when
// i is out of range.
func (l *Lane) Position(i int) geom.Point {
	if i < 0 || i >= len(l.Waypoints) {
		return geom.Point{}
	}
	return l.Waypoints[i].Pose.Position
}

// Orientation returns the orientation of waypoint i, or the zero
// quaternion when i is out of range.
func (l *Lane) Orientation(i int) geom.Quaternion {
	if i < 0 || i >= len(l.Waypoints) {
		return geom.Quaternion{}
	}
	return l.Waypoints[i].Pose.Orientation
}

// PoseAt returns the pose of waypoint i, or the zero pose when i is
// out of range.
func (l *Lane) PoseAt(i int) geom.Pose {
	if i < 0 || i >= len(l.Waypoints) {
		return geom.Pose{}
	}
	return l.Waypoints[i].Pose
}

// VelocityAt returns the target velocity of waypoint i in m/s, or 0
// when i is out of range.
func (l *Lane) VelocityAt(i int) float64 {
	if i < 0 || i >= len(l.Waypoints) {
		return 0
	}
	return l.Waypoints[i].VelocityMPS
}

// Poses returns the waypoint poses as a fresh slice.
func (l *Lane) Poses() []geom.Pose {
	return AppendPoses(nil, l)
}

// AppendPoses appends the waypoint poses to dst and returns the
// extended slice. Real-time callers can reuse dst across cycles to
// avoid per-cycle allocation.
func AppendPoses(dst []geom.Pose, l *Lane) []geom.Pose {
	for i := range l.Waypoints {
		dst = append(dst, l.Waypoints[i].Pose)
	}
	return dst
}

// InDrivingDirection reports whether waypoint i lies on the side of
// the vehicle that matches the lane's traversal direction: ahead for a
// forward lane, behind for a backward one. False when the direction is
// unknown or ambiguous.
func (l *Lane) InDrivingDirection(i int, pose geom.Pose) bool {
	dir, _ := DefaultDirectionConfig().Classify(l)
	x := geom.ToRelative3D(l.Position(i), pose).X
	return (x < 0.0 && dir == DirectionBackward) || (x >= 0.0 && dir == DirectionForward)
}

// Validate reports load-time problems: too few waypoints or
// non-finite positions. The tracking hot path never validates; run
// this once after loading a lane from external input.
func (l *Lane) Validate() error {
	if len(l.Waypoints) < 2 {
		return fmt.Errorf("lane %q has %d waypoints, need at least 2", l.Name, len(l.Waypoints))
	}
	for i, wp := range l.Waypoints {
		p := wp.Pose.Position
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) ||
			math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
			return fmt.Errorf("lane %q waypoint %d has non-finite position", l.Name, i)
		}
	}
	return nil
}
