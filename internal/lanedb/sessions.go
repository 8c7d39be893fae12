package lanedb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a recorded replay run.
type Session struct {
	ID               string `json:"id"`
	LaneName         string `json:"lane_name"`
	PoseSource       string `json:"pose_source"`
	Notes            string `json:"notes"`
	StartedUnixNanos int64  `json:"started_unix_nanos"`
	SampleCount      int    `json:"sample_count"`
}

// Sample is one tracked pose within a session.
type Sample struct {
	Seq           int     `json:"seq"`
	TUnixNanos    int64   `json:"t_unix_nanos"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	Yaw           float64 `json:"yaw"`
	SpeedMPS      float64 `json:"speed_mps"`
	TrackedIndex  int     `json:"tracked_index"`
	Direction     string  `json:"direction"`
	LateralErrorM float64 `json:"lateral_error_m"`
	Curvature     float64 `json:"curvature"`
	PlaneDistM    float64 `json:"plane_dist_m"`
}

// CreateSession inserts a new session row and returns its generated id.
func (db *DB) CreateSession(laneName, poseSource, notes string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO replay_sessions (id, lane_name, pose_source, notes, started_unix_nanos)
		VALUES (?, ?, ?, ?, ?)
	`, id, laneName, poseSource, notes, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// AppendSamples writes a batch of samples to the session in one
// transaction. Sequence numbers come from the samples themselves so
// callers can batch at whatever size suits the feed.
func (db *DB) AppendSamples(sessionID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin append samples: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO replay_samples
			(session_id, seq, t_unix_nanos, x, y, z, yaw, speed_mps,
			 tracked_index, direction, lateral_error_m, curvature, plane_dist_m)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.Exec(sessionID, s.Seq, s.TUnixNanos, s.X, s.Y, s.Z, s.Yaw,
			s.SpeedMPS, s.TrackedIndex, s.Direction, s.LateralErrorM, s.Curvature, s.PlaneDistM)
		if err != nil {
			return fmt.Errorf("insert sample %d: %w", s.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append samples: %w", err)
	}
	return nil
}

// GetSession loads one session with its sample count.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	err := db.QueryRow(`
		SELECT s.id, s.lane_name, s.pose_source, s.notes, s.started_unix_nanos,
		       (SELECT COUNT(*) FROM replay_samples r WHERE r.session_id = s.id)
		FROM replay_sessions s
		WHERE s.id = ?
	`, id).Scan(&s.ID, &s.LaneName, &s.PoseSource, &s.Notes, &s.StartedUnixNanos, &s.SampleCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}
	return &s, nil
}

// SessionSamples returns all samples for a session in sequence order.
func (db *DB) SessionSamples(sessionID string) ([]Sample, error) {
	rows, err := db.Query(`
		SELECT seq, t_unix_nanos, x, y, z, yaw, speed_mps,
		       tracked_index, direction, lateral_error_m, curvature, plane_dist_m
		FROM replay_samples
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session %s samples: %w", sessionID, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		err := rows.Scan(&s.Seq, &s.TUnixNanos, &s.X, &s.Y, &s.Z, &s.Yaw, &s.SpeedMPS,
			&s.TrackedIndex, &s.Direction, &s.LateralErrorM, &s.Curvature, &s.PlaneDistM)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// ListSessions returns all sessions, newest first.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT s.id, s.lane_name, s.pose_source, s.notes, s.started_unix_nanos,
		       (SELECT COUNT(*) FROM replay_samples r WHERE r.session_id = s.id)
		FROM replay_sessions s
		ORDER BY s.started_unix_nanos DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.LaneName, &s.PoseSource, &s.Notes, &s.StartedUnixNanos, &s.SampleCount); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
