// Package lane owns the lane data model of the tracking pipeline.
//
// Responsibilities: the Waypoint/Lane types, traversal-direction
// classification from positions and velocities, waypoint yaw
// estimation, and lane file I/O (CSV, GeoJSON).
// Key types: Lane, Waypoint, Direction, DirectionConfig.
//
// Dependency rule: lane may depend on geom, but never on tracker or
// storage. A Lane is treated as immutable while it is being tracked;
// nothing in this package mutates one after construction.
package lane
