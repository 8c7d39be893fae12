package lane

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LineString returns the lane's planar geometry as an orb.LineString.
func (l *Lane) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(l.Waypoints))
	for _, wp := range l.Waypoints {
		ls = append(ls, orb.Point{wp.Pose.Position.X, wp.Pose.Position.Y})
	}
	return ls
}

// Bound returns the planar bounding box of the lane.
func (l *Lane) Bound() orb.Bound {
	return l.LineString().Bound()
}

// GeoJSON renders the lane as a FeatureCollection: one LineString
// feature for the lane plus a Point feature per waypoint carrying
// seq, yaw and velocity properties. Intended for the web monitor and
// external map tooling.
func (l *Lane) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	line := geojson.NewFeature(l.LineString())
	line.Properties["name"] = l.Name
	line.Properties["waypoint_count"] = l.Len()
	dir, err := l.Direction()
	if err == nil {
		line.Properties["direction"] = dir.String()
	} else {
		line.Properties["direction"] = "ambiguous"
	}
	fc.Append(line)

	for i, wp := range l.Waypoints {
		f := geojson.NewFeature(orb.Point{wp.Pose.Position.X, wp.Pose.Position.Y})
		f.Properties["seq"] = i
		f.Properties["yaw"] = YawAt(l, i)
		f.Properties["velocity_mps"] = wp.VelocityMPS
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal lane geojson: %w", err)
	}
	return data, nil
}
