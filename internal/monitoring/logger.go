// Package monitoring carries the process-wide diagnostic hooks shared
// by the tracking library and its tools.
package monitoring

import "log"

// Logf is the package-level diagnostic logger for warning output from
// the tracking hot path. It defaults to log.Printf; tests mute it and
// daemons may redirect it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
