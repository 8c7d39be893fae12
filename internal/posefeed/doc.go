// Package posefeed owns pose acquisition: turning recorded logs, live
// GNSS serial streams and UDP telemetry into a uniform stream of timed
// pose samples for the tracking loop.
//
// Responsibilities:
//   - the Sample/Source contract every feed implements
//   - CSV pose-log reading and writing
//   - NMEA serial reading with checksum validation and local planar
//     projection around a configured datum
//   - UDP listening for newline-delimited JSON pose telemetry
//   - pcap playback of captured telemetry (behind the pcap build tag)
//
// Key types: Sample, Source, CSVSource, SerialSource, UDPListener.
//
// Dependency rule: posefeed depends on geom, monitoring and timeutil.
// It never decides anything about lanes or tracking; it only produces
// poses.
package posefeed
