package tracker

import (
	"math"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/monitoring"
)

// Update advances the tracked index by one control cycle. prev is the
// result of the previous cycle, or Unset to initialize via FindClosest.
//
// The update runs in two stages. Stage one re-anchors the start of the
// search from prev using a local heuristic: step forward across a
// velocity sign flip (a switchback boundary) or while the next
// waypoint is closer than the current one, and step backward while the
// previous waypoint is closer and the velocity sign holds. Forward and
// backward steps are gated on the sign of the accumulated offset, so a
// retreat only continues while no advance has happened and vice versa;
// the asymmetry between the two directions is intentional behavior
// around switchbacks. Stage two scans forward from the re-anchored
// start and stops at the last index before the planar distance first
// grows; if the distance never grows the scan ends at the lane end and
// that index is the result.
//
// Returns Unset when the lane has fewer than two waypoints or prev is
// past the end.
func (c Config) Update(l *lane.Lane, pose geom.Pose, prev int) int {
	size := l.Len()
	if size < 2 || prev > size-1 {
		monitoring.Logf("[Tracker] cannot update index (size=%d, index=%d)", size, prev)
		return Unset
	}
	if prev < 0 {
		return c.FindClosest(l, pose)
	}

	start := prev
	if start > 0 && start < size-1 {
		offset := 0
	scan:
		for i := start; i < size-1; i++ {
			prevVel := l.VelocityAt(i - 1)
			curVel := l.VelocityAt(i)
			nextVel := l.VelocityAt(i + 1)

			prevDist := geom.PlaneDistance(pose.Position, l.Position(i-1))
			curDist := geom.PlaneDistance(pose.Position, l.Position(i))
			nextDist := geom.PlaneDistance(pose.Position, l.Position(i+1))

			switch {
			case curVel*nextVel < 0 && offset >= 0:
				// Sign flip between current and next: the vehicle sits
				// at a switchback boundary, move past it.
				offset++
			case curVel*nextVel > 0 && nextDist < curDist && offset >= 0:
				offset++
			case prevVel*curVel > 0 && prevDist < curDist && offset <= 0:
				offset--
			default:
				break scan
			}
		}
		start += offset
	}
	if start < 0 {
		start = 0
	}
	if start > size-1 {
		start = size - 1
	}

	next := size - 1
	prevDist := math.MaxFloat64
	for i := start; i < size; i++ {
		curDist := geom.PlaneDistance(l.Position(i), pose.Position)
		if curDist > prevDist {
			next = i - 1
			break
		}
		prevDist = curDist
	}

	if next < 0 {
		next = 0
	}
	if next > size-1 {
		next = size - 1
	}
	return next
}
