package tracker

import (
	"math"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/monitoring"
)

// Unset is the sentinel index meaning "no waypoint". Callers must
// check for it before using a result.
const Unset = -1

// Config holds the validity gates for the closest-waypoint search.
type Config struct {
	// ValidDistanceMeters is the maximum planar distance for a
	// waypoint to qualify in the first search phase.
	ValidDistanceMeters float64
	// ValidAngleRad is the maximum absolute yaw difference between the
	// waypoint heading and the vehicle heading in the first phase.
	ValidAngleRad float64
}

// DefaultConfig returns the gates used in production.
func DefaultConfig() Config {
	return Config{
		ValidDistanceMeters: 5.0,
		ValidAngleRad:       math.Pi / 2,
	}
}

// minSearch keeps a running minimum over (index, value) pairs. The
// strict less-than keeps the earliest index on ties.
type minSearch struct {
	val float64
	idx int
}

func newMinSearch() minSearch {
	return minSearch{val: math.MaxFloat64, idx: Unset}
}

func (m *minSearch) update(index int, v float64) {
	if v < m.val {
		m.idx = index
		m.val = v
	}
}

func (m *minSearch) ok() bool {
	return m.idx != Unset
}

// FindClosest returns the index of the waypoint the vehicle is at.
//
// Phase 1 considers only waypoints within ValidDistanceMeters whose
// estimated yaw differs from the vehicle yaw by less than
// ValidAngleRad, which keeps a nearby waypoint of a parallel reverse
// lane from capturing the vehicle. Phase 2 drops both gates and
// returns the globally nearest waypoint, so any lane with at least two
// waypoints always yields a result. Returns Unset only for shorter
// lanes.
func (c Config) FindClosest(l *lane.Lane, pose geom.Pose) int {
	if l.Len() < 2 {
		monitoring.Logf("[Tracker] lane too small for closest search (size=%d)", l.Len())
		return Unset
	}

	closest := Unset
	minDistance := c.ValidDistanceMeters
	robotYaw := pose.Yaw()
	for i := 0; i < l.Len(); i++ {
		distance := geom.PlaneDistance(l.Position(i), pose.Position)
		angleDiff := geom.NormalizeAngle(lane.YawAt(l, i) - robotYaw)
		if distance < minDistance && math.Abs(angleDiff) < c.ValidAngleRad {
			minDistance = distance
			closest = i
		}
	}
	if closest != Unset {
		return closest
	}

	// Nothing ahead within the gates; fall back to the global nearest.
	monitoring.Logf("[Tracker] no waypoint within %.1fm facing our way, falling back to nearest", c.ValidDistanceMeters)
	nearest := newMinSearch()
	for i := 0; i < l.Len(); i++ {
		nearest.update(i, geom.PlaneDistance(l.Position(i), pose.Position))
	}
	return nearest.idx
}

// FindClosestPose searches a bare pose sequence with explicit gates:
// squared planar distance inside distThr and stored-orientation yaw
// within angleThr. Unlike FindClosest it has no fallback phase; ok is
// false when no pose qualifies.
func FindClosestPose(poses []geom.Pose, current geom.Pose, distThr, angleThr float64) (int, bool) {
	nearest := newMinSearch()
	for i := range poses {
		ds := geom.DistSquared2D(poses[i].Position, current.Position)
		if ds > distThr*distThr {
			continue
		}
		yawDiff := geom.NormalizeAngle(current.Yaw() - poses[i].Yaw())
		if math.Abs(yawDiff) > angleThr {
			continue
		}
		nearest.update(i, ds)
	}
	return nearest.idx, nearest.ok()
}
