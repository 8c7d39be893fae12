// Package tracker owns waypoint localization: deciding which waypoint
// of a lane the vehicle is currently at and keeping that index current
// as the vehicle moves.
//
// Responsibilities: the two-phase closest-waypoint search, the
// incremental per-cycle index update with its switchback re-anchoring
// heuristic, and the caller-owned Tracker state wrapper.
// Key types: Config, Tracker.
//
// Dependency rule: tracker may depend on geom, lane and monitoring,
// but never on storage or transport. All search functions are pure;
// Tracker holds the only state (the previous index) and is owned by
// exactly one control loop, so it takes no locks.
package tracker
