package monitor

import (
	"sync"
	"time"
)

// TrackStatus is one published tracking cycle. The daemon loop fills
// it after every pose and hands it to the StatusBoard; handlers and
// the status page read it back.
type TrackStatus struct {
	Lane          string  `json:"lane"`
	Direction     string  `json:"direction"`
	Index         int     `json:"index"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	Yaw           float64 `json:"yaw"`
	SpeedMPS      float64 `json:"speed_mps"`
	LateralErrorM float64 `json:"lateral_error_m"`
	PlaneDistM    float64 `json:"plane_dist_m"`
	PoseUnixNanos int64   `json:"pose_unix_nanos"`
	CyclesTotal   int64   `json:"cycles_total"`
	CyclesTracked int64   `json:"cycles_tracked"`
}

// StatusResponse is the wire shape of /api/track/status. Tracking is
// false until the daemon publishes its first cycle, in which case the
// embedded status is absent. Speed and SpeedUnits are set only when the
// request asks for a display unit; the stored speed stays in m/s.
type StatusResponse struct {
	Tracking      bool     `json:"tracking"`
	UptimeSeconds float64  `json:"uptime_s"`
	PoseAgeMS     float64  `json:"pose_age_ms,omitempty"`
	Speed         *float64 `json:"speed,omitempty"`
	SpeedUnits    string   `json:"speed_units,omitempty"`
	*TrackStatus
}

// StatusBoard holds the latest TrackStatus with thread-safe access.
// One writer (the daemon loop), many readers (HTTP handlers).
type StatusBoard struct {
	mu        sync.Mutex
	startTime time.Time
	latest    *TrackStatus
}

// NewStatusBoard creates an empty board and starts the uptime clock.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{startTime: time.Now()}
}

// Publish replaces the latest status.
func (b *StatusBoard) Publish(s TrackStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = &s
}

// Latest returns a copy of the most recent status, or nil when nothing
// has been published yet.
func (b *StatusBoard) Latest() *TrackStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		return nil
	}
	snapshot := *b.latest
	return &snapshot
}

// Uptime returns the time since the board was created.
func (b *StatusBoard) Uptime() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Since(b.startTime)
}
