// Package lanedb owns durable storage for lanes and replay sessions.
//
// Responsibilities:
//   - sqlite schema lifecycle via embedded golang-migrate migrations
//   - lane persistence: metadata plus ordered waypoints
//   - replay session recording: per-cycle tracker samples written in batches
//
// Key types:
//   - DB: open database handle wrapping *sql.DB
//   - LaneMeta: lane listing row
//   - Session, Sample: replay recording rows
//
// Dependency rule: lanedb depends on geom and lane only. Sessions are
// analysis artifacts; the tracking hot path never reads them back.
package lanedb
