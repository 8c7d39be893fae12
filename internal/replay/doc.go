// Package replay runs a recorded or live pose source against a lane
// through the tracker and reports how well the lane was followed.
//
// Responsibilities:
//   - the per-cycle tracking loop with optional recorded-timing pacing
//   - per-cycle geometry: lateral error, curvature, planar distance
//   - the aggregate report: index behavior, lateral-error statistics,
//     divergence count against a spatial nearest-waypoint truth check
//   - optional persistence of every cycle into a lanedb session
//
// Key types: Config, Result, Report.
//
// Dependency rule: replay sits above tracker, lane, posefeed and
// lanedb. Nothing in the live daemon depends on replay; it is analysis
// tooling.
package replay
