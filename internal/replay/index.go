package replay

import (
	"github.com/tidwall/rtree"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
)

// waypointIndex is a 2D spatial index over lane waypoints. The tracker
// follows the lane incrementally; the index answers the independent
// question "is any waypoint closer than this" without an O(n) scan per
// cycle.
type waypointIndex struct {
	tree      rtree.RTreeG[int]
	positions []geom.Point
}

func newWaypointIndex(l *lane.Lane) *waypointIndex {
	idx := &waypointIndex{positions: make([]geom.Point, l.Len())}
	for i := 0; i < l.Len(); i++ {
		p := l.Position(i)
		idx.positions[i] = p
		idx.tree.Insert([2]float64{p.X, p.Y}, [2]float64{p.X, p.Y}, i)
	}
	return idx
}

// anyCloser reports whether some waypoint lies strictly closer than
// limit to pos in the plane. A bounding box of half-width limit
// contains every such candidate, so one rectangle query suffices.
func (idx *waypointIndex) anyCloser(pos geom.Point, limit float64) bool {
	if limit <= 0 {
		return false
	}
	found := false
	idx.tree.Search(
		[2]float64{pos.X - limit, pos.Y - limit},
		[2]float64{pos.X + limit, pos.Y + limit},
		func(min, max [2]float64, i int) bool {
			if geom.PlaneDistance(idx.positions[i], pos) < limit {
				found = true
				return false
			}
			return true
		},
	)
	return found
}
