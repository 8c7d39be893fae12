// Package main replays a recorded pose log against a lane and reports
// tracking quality: index span, retreats, fallbacks, divergences, and
// lateral error statistics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/lanetrack/internal/config"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/posefeed"
	"github.com/banshee-data/lanetrack/internal/replay"
)

// Config holds configuration for a replay run.
type Config struct {
	LaneFile    string
	LaneName    string
	DBFile      string
	PoseCSV     string
	PCAPFile    string
	UDPPort     int
	TuningFile  string
	TruthMargin float64
	Pace        bool
	Record      bool
	Notes       string
	OutputJSON  string
}

func main() {
	cfg := parseFlags()

	if cfg.LaneFile == "" && cfg.LaneName == "" {
		log.Fatal("A lane is required: pass -lane <csv> or -lane-name <stored lane>")
	}
	if cfg.PoseCSV == "" && cfg.PCAPFile == "" {
		log.Fatal("A pose log is required: pass -poses <csv> or -pcap <file>")
	}
	if cfg.PoseCSV != "" && cfg.PCAPFile != "" {
		log.Fatal("Pass either -poses or -pcap, not both")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := runReplay(ctx, cfg)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	printResults(report)

	if cfg.OutputJSON != "" {
		if err := exportJSON(report, cfg.OutputJSON); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Report exported to: %s", cfg.OutputJSON)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.LaneFile, "lane", "", "Lane CSV to replay against")
	flag.StringVar(&cfg.LaneName, "lane-name", "", "Stored lane to load from the database")
	flag.StringVar(&cfg.DBFile, "db", "lanetrack.db", "Path to the SQLite database file")
	flag.StringVar(&cfg.PoseCSV, "poses", "", "Pose log CSV to replay")
	flag.StringVar(&cfg.PCAPFile, "pcap", "", "PCAP capture of UDP pose telemetry to replay")
	flag.IntVar(&cfg.UDPPort, "port", 4242, "UDP port to filter in the PCAP capture")
	flag.StringVar(&cfg.TuningFile, "tuning", "", "Tuning config JSON (default: built-in defaults)")
	flag.Float64Var(&cfg.TruthMargin, "truth-margin", 0, "Divergence margin in meters (0 uses the default)")
	flag.BoolVar(&cfg.Pace, "pace", false, "Sleep between samples to mirror the recorded timing")
	flag.BoolVar(&cfg.Record, "record", false, "Record the replay as a session in the database")
	flag.StringVar(&cfg.Notes, "notes", "", "Notes to attach to the recorded session")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Write the report as JSON to this file")

	flag.Parse()

	return cfg
}

func runReplay(ctx context.Context, cfg Config) (*replay.Report, error) {
	runCfg := replay.Config{
		TruthMargin: cfg.TruthMargin,
		Pace:        cfg.Pace,
		Notes:       cfg.Notes,
	}
	if cfg.TuningFile != "" {
		tuning, err := config.LoadTuningConfig(cfg.TuningFile)
		if err != nil {
			return nil, fmt.Errorf("load tuning config: %w", err)
		}
		runCfg.Tracker = tuning.TrackerConfig()
		runCfg.Direction = tuning.DirectionConfig()
		runCfg.BatchSize = tuning.GetSampleBatchSize()
	}

	var db *lanedb.DB
	if cfg.LaneName != "" || cfg.Record {
		var err error
		db, err = lanedb.Open(cfg.DBFile)
		if err != nil {
			return nil, fmt.Errorf("open lane database: %w", err)
		}
		defer db.Close()
	}
	if cfg.Record {
		runCfg.Record = db
	}

	var l *lane.Lane
	var err error
	if cfg.LaneFile != "" {
		l, err = lane.LoadCSV(cfg.LaneFile)
	} else {
		l, err = db.GetLaneByName(cfg.LaneName)
	}
	if err != nil {
		return nil, fmt.Errorf("load lane: %w", err)
	}

	var src posefeed.Source
	pcapErr := make(chan error, 1)
	if cfg.PoseCSV != "" {
		csv, err := posefeed.OpenCSV(cfg.PoseCSV)
		if err != nil {
			return nil, fmt.Errorf("open pose log: %w", err)
		}
		defer csv.Close()
		src = csv
		runCfg.PoseSource = "csv:" + filepath.Base(cfg.PoseCSV)
	} else {
		ch := make(chan posefeed.Sample, 64)
		go func() {
			defer close(ch)
			pcapErr <- posefeed.ReadPCAP(ctx, cfg.PCAPFile, cfg.UDPPort, ch)
		}()
		src = posefeed.ChanSource{C: ch}
		runCfg.PoseSource = "pcap:" + filepath.Base(cfg.PCAPFile)
	}

	log.Printf("Replaying %s against lane %q (%d waypoints)", runCfg.PoseSource, l.Name, l.Len())

	report, _, err := replay.Run(ctx, l, src, runCfg)
	if err != nil {
		return nil, err
	}

	// A pcap reader failure surfaces as a clean EOF on the channel, so
	// check for it explicitly.
	select {
	case err := <-pcapErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("pcap replay: %w", err)
		}
	default:
	}

	return report, nil
}

func printResults(report *replay.Report) {
	fmt.Println("\n=== Replay Results ===")
	fmt.Println(report.Summary())
}

func exportJSON(report *replay.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
