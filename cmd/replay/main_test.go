package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/posefeed"
	"github.com/banshee-data/lanetrack/internal/replay"
)

// writeFixtures stores a five-waypoint straight lane and a matching
// pose log in dir. Each pose sits 0.1 m short of its waypoint and
// 0.05 m to the left so the search always has its waypoint ahead.
func writeFixtures(t *testing.T, dir string) (lanePath, posePath string) {
	t.Helper()

	l := &lane.Lane{Name: "straight"}
	for i := 0; i < 5; i++ {
		l.Waypoints = append(l.Waypoints, lane.Waypoint{
			Pose: geom.Pose{
				Position:    geom.Point{X: float64(i)},
				Orientation: geom.QuaternionFromYaw(0),
			},
			VelocityMPS: 5,
		})
	}
	lanePath = filepath.Join(dir, "straight.csv")
	if err := l.SaveCSV(lanePath); err != nil {
		t.Fatalf("Failed to write lane fixture: %v", err)
	}

	posePath = filepath.Join(dir, "poses.csv")
	w, err := posefeed.CreateCSV(posePath)
	if err != nil {
		t.Fatalf("Failed to create pose fixture: %v", err)
	}
	for i := 0; i < 5; i++ {
		sample := posefeed.Sample{
			TimeUnixNanos: int64(i+1) * 100_000_000,
			Pose: geom.Pose{
				Position:    geom.Point{X: float64(i) - 0.1, Y: 0.05},
				Orientation: geom.QuaternionFromYaw(0),
			},
			SpeedMPS: 5,
		}
		if err := w.Write(sample); err != nil {
			t.Fatalf("Failed to write pose fixture: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close pose fixture: %v", err)
	}

	return lanePath, posePath
}

func TestRunReplayFromCSV(t *testing.T) {
	dir := t.TempDir()
	lanePath, posePath := writeFixtures(t, dir)

	cfg := Config{
		LaneFile: lanePath,
		PoseCSV:  posePath,
		DBFile:   filepath.Join(dir, "replay.db"),
	}
	report, err := runReplay(context.Background(), cfg)
	if err != nil {
		t.Fatalf("runReplay failed: %v", err)
	}

	if report.Lane != "straight" {
		t.Errorf("Lane = %q, want straight", report.Lane)
	}
	if report.Samples != 5 || report.Tracked != 5 {
		t.Errorf("Samples/Tracked = %d/%d, want 5/5", report.Samples, report.Tracked)
	}
	if report.IndexMin != 0 || report.IndexMax != 4 {
		t.Errorf("Index span = [%d, %d], want [0, 4]", report.IndexMin, report.IndexMax)
	}
	if report.Divergences != 0 || report.Fallbacks != 0 || report.IndexRetreats != 0 {
		t.Errorf("Unexpected anomalies: %d divergences, %d fallbacks, %d retreats",
			report.Divergences, report.Fallbacks, report.IndexRetreats)
	}
	if report.SessionID != "" {
		t.Errorf("SessionID = %q, want empty without -record", report.SessionID)
	}
}

func TestRunReplayRecordsSession(t *testing.T) {
	dir := t.TempDir()
	lanePath, posePath := writeFixtures(t, dir)
	dbPath := filepath.Join(dir, "replay.db")

	cfg := Config{
		LaneFile: lanePath,
		PoseCSV:  posePath,
		DBFile:   dbPath,
		Record:   true,
		Notes:    "cli test",
	}
	report, err := runReplay(context.Background(), cfg)
	if err != nil {
		t.Fatalf("runReplay failed: %v", err)
	}
	if report.SessionID == "" {
		t.Fatal("Expected a recorded session ID")
	}

	db, err := lanedb.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	session, err := db.GetSession(report.SessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.LaneName != "straight" || session.Notes != "cli test" {
		t.Errorf("Session = %+v, want lane straight with cli test notes", session)
	}
	if session.SampleCount != 5 {
		t.Errorf("SampleCount = %d, want 5", session.SampleCount)
	}
}

func TestRunReplayStoredLane(t *testing.T) {
	dir := t.TempDir()
	lanePath, posePath := writeFixtures(t, dir)
	dbPath := filepath.Join(dir, "replay.db")

	l, err := lane.LoadCSV(lanePath)
	if err != nil {
		t.Fatalf("Failed to load lane fixture: %v", err)
	}
	db, err := lanedb.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if _, err := db.SaveLane(l, "test"); err != nil {
		t.Fatalf("Failed to store lane: %v", err)
	}
	db.Close()

	cfg := Config{
		LaneName: "straight",
		PoseCSV:  posePath,
		DBFile:   dbPath,
	}
	report, err := runReplay(context.Background(), cfg)
	if err != nil {
		t.Fatalf("runReplay failed: %v", err)
	}
	if report.Lane != "straight" || report.Tracked != 5 {
		t.Errorf("Report = %+v, want lane straight with 5 tracked", report)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := &replay.Report{Lane: "straight", Samples: 5, Tracked: 5}

	if err := exportJSON(report, path); err != nil {
		t.Fatalf("exportJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read exported report: %v", err)
	}
	var decoded replay.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Exported report is not JSON: %v", err)
	}
	if decoded.Lane != "straight" || decoded.Samples != 5 {
		t.Errorf("Decoded report = %+v, want lane straight with 5 samples", decoded)
	}
}
