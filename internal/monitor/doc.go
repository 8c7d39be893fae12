// Package monitor owns the HTTP observation surface of the tracking
// daemon: status and version endpoints, runtime tuning parameter
// inspection and update, lane listing and GeoJSON export, and debug
// charts rendered with go-echarts.
//
// Responsibilities:
//   - Publish the latest tracking cycle through a StatusBoard that the
//     daemon loop writes and handlers read.
//   - Serve and apply partial tuning updates through a ParamStore so a
//     running daemon can be retuned without a restart.
//   - Expose lanes and replay sessions stored in lanedb.
//
// Key types: WebServer, StatusBoard, ParamStore, Client.
//
// Dependency rule: monitor sits above lane, tracker, config, lanedb
// and httputil. Nothing below the HTTP surface imports monitor.
package monitor
