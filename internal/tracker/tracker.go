package tracker

import (
	"math"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
)

// Tracker carries the per-control-loop tracking state: the lane being
// followed and the index from the previous cycle. One Tracker belongs
// to exactly one control loop; it takes no locks.
type Tracker struct {
	config Config
	lane   *lane.Lane
	index  int
}

// New returns a Tracker with no lane and an unset index.
func New(config Config) *Tracker {
	return &Tracker{
		config: config,
		index:  Unset,
	}
}

// SetLane installs the lane to follow and resets the tracked index.
// Passing nil clears the tracker.
func (t *Tracker) SetLane(l *lane.Lane) {
	t.lane = l
	t.index = Unset
}

// Track runs one tracking cycle against the current pose and returns
// the tracked index. If l differs from the installed lane the tracker
// re-anchors from scratch, so a planner can hand in a fresh lane each
// cycle without extra bookkeeping. Returns Unset when no lane is set
// or the lane is too short.
func (t *Tracker) Track(l *lane.Lane, pose geom.Pose) int {
	if l != t.lane {
		t.SetLane(l)
	}
	if t.lane == nil {
		return Unset
	}
	t.index = t.config.Update(t.lane, pose, t.index)
	return t.index
}

// Index returns the index from the last cycle, or Unset.
func (t *Tracker) Index() int {
	return t.index
}

// Lane returns the lane currently being tracked, or nil.
func (t *Tracker) Lane() *lane.Lane {
	return t.lane
}

// Config returns the tracker's search configuration.
func (t *Tracker) Config() Config {
	return t.config
}

// DecelerationVelocity returns the speed in m/s that brings the
// vehicle to rest over the given distance at 1 m/s^2, capped at
// prevVelocity so a vehicle never speeds up while stopping.
func DecelerationVelocity(distance, prevVelocity float64) float64 {
	const decelMS = 1.0 // m/s^2
	decelVelocity := math.Sqrt(2 * decelMS * distance)
	if decelVelocity < prevVelocity {
		return decelVelocity
	}
	return prevVelocity
}
