package lanedb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
)

// LaneMeta is a lane listing row.
type LaneMeta struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Source           string `json:"source"`
	CreatedUnixNanos int64  `json:"created_unix_nanos"`
	WaypointCount    int    `json:"waypoint_count"`
}

// SaveLane stores l under its name, replacing any previously stored
// waypoints for that name. The source string records where the lane came
// from (file path, recording session). Returns the lane row id.
func (db *DB) SaveLane(l *lane.Lane, source string) (int64, error) {
	if err := l.Validate(); err != nil {
		return 0, fmt.Errorf("validate lane: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin save lane: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO lanes (name, source, created_unix_nanos)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			source = excluded.source,
			created_unix_nanos = excluded.created_unix_nanos
	`, l.Name, source, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("upsert lane: %w", err)
	}

	// LastInsertId is unreliable on the conflict-update path, so resolve
	// the row id by name.
	var laneID int64
	if err := tx.QueryRow(`SELECT id FROM lanes WHERE name = ?`, l.Name).Scan(&laneID); err != nil {
		return 0, fmt.Errorf("lookup lane id: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM lane_waypoints WHERE lane_id = ?`, laneID); err != nil {
		return 0, fmt.Errorf("clear lane waypoints: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO lane_waypoints (lane_id, seq, x, y, z, yaw, velocity_mps)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare waypoint insert: %w", err)
	}
	defer stmt.Close()

	for i, wp := range l.Waypoints {
		p := wp.Pose.Position
		if _, err := stmt.Exec(laneID, i, p.X, p.Y, p.Z, wp.Pose.Yaw(), wp.VelocityMPS); err != nil {
			return 0, fmt.Errorf("insert waypoint %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save lane: %w", err)
	}
	return laneID, nil
}

// GetLane loads the lane with the given row id.
func (db *DB) GetLane(id int64) (*lane.Lane, error) {
	var name string
	err := db.QueryRow(`SELECT name FROM lanes WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lane %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query lane %d: %w", id, err)
	}

	rows, err := db.Query(`
		SELECT x, y, z, yaw, velocity_mps
		FROM lane_waypoints
		WHERE lane_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query lane %d waypoints: %w", id, err)
	}
	defer rows.Close()

	l := &lane.Lane{Name: name}
	for rows.Next() {
		var x, y, z, yaw, velocity float64
		if err := rows.Scan(&x, &y, &z, &yaw, &velocity); err != nil {
			return nil, fmt.Errorf("scan waypoint: %w", err)
		}
		l.Waypoints = append(l.Waypoints, lane.Waypoint{
			Pose: geom.Pose{
				Position:    geom.Point{X: x, Y: y, Z: z},
				Orientation: geom.QuaternionFromYaw(yaw),
			},
			VelocityMPS: velocity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waypoints: %w", err)
	}

	return l, nil
}

// GetLaneByName loads the lane stored under name.
func (db *DB) GetLaneByName(name string) (*lane.Lane, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM lanes WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lane %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query lane %q: %w", name, err)
	}
	return db.GetLane(id)
}

// ListLanes returns metadata for all stored lanes, newest first.
func (db *DB) ListLanes() ([]LaneMeta, error) {
	rows, err := db.Query(`
		SELECT l.id, l.name, l.source, l.created_unix_nanos,
		       (SELECT COUNT(*) FROM lane_waypoints w WHERE w.lane_id = l.id)
		FROM lanes l
		ORDER BY l.created_unix_nanos DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list lanes: %w", err)
	}
	defer rows.Close()

	var lanes []LaneMeta
	for rows.Next() {
		var m LaneMeta
		if err := rows.Scan(&m.ID, &m.Name, &m.Source, &m.CreatedUnixNanos, &m.WaypointCount); err != nil {
			return nil, fmt.Errorf("scan lane row: %w", err)
		}
		lanes = append(lanes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lanes: %w", err)
	}
	return lanes, nil
}

// DeleteLane removes the lane and its waypoints.
func (db *DB) DeleteLane(id int64) error {
	res, err := db.Exec(`DELETE FROM lanes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete lane %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lane %d rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("lane %d: %w", id, ErrNotFound)
	}
	return nil
}
