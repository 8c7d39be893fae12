package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/posefeed"
	"github.com/banshee-data/lanetrack/internal/timeutil"
	"github.com/banshee-data/lanetrack/internal/tracker"
)

const (
	// Default number of session rows written per transaction.
	defaultBatchSize = 256

	// A waypoint must beat the tracked one by this margin (meters) to
	// count as a divergence. Filters ties and float noise.
	defaultTruthMargin = 0.01

	// Recorded logs can contain long silences; pacing never sleeps
	// longer than this per gap.
	maxPaceGap = time.Second
)

// Config controls one replay run. The zero value replays as fast as
// possible with production tracker gates and no recording.
type Config struct {
	// Tracker holds the search gates. Zero means production defaults.
	Tracker tracker.Config
	// Direction holds the classifier thresholds. Zero means production
	// defaults.
	Direction lane.DirectionConfig
	// TruthMargin overrides the divergence margin in meters.
	TruthMargin float64
	// Pace sleeps between samples to mirror the recorded timing.
	Pace bool
	// Clock drives pacing. Nil means the real clock.
	Clock timeutil.Clock
	// Record, when set, writes every cycle into a new session.
	Record *lanedb.DB
	// PoseSource and Notes annotate the recorded session.
	PoseSource string
	Notes      string
	// BatchSize overrides the session write batch size.
	BatchSize int
}

// Result is the outcome of one tracking cycle.
type Result struct {
	Sample posefeed.Sample
	// Index is the tracked waypoint, or tracker.Unset.
	Index int
	// LateralError is the signed planar offset from the lane segment at
	// the tracked waypoint, positive to the left.
	LateralError float64
	// Curvature is the arc curvature from the pose to the following
	// waypoint, in 1/m.
	Curvature float64
	// PlaneDist is the planar distance to the tracked waypoint.
	PlaneDist float64
}

// Report aggregates a replay run.
type Report struct {
	Lane      string `json:"lane"`
	SessionID string `json:"session_id,omitempty"`
	// Direction is the lane classification for the whole run.
	Direction          string `json:"direction"`
	DirectionAmbiguous bool   `json:"direction_ambiguous,omitempty"`

	Samples int `json:"samples"`
	// Tracked counts cycles that produced a waypoint index.
	Tracked  int `json:"tracked"`
	IndexMin int `json:"index_min"`
	IndexMax int `json:"index_max"`
	// IndexRetreats counts cycles where the index moved backward.
	IndexRetreats int `json:"index_retreats"`
	// Fallbacks counts cycles tracked beyond the validity distance,
	// where only the gate-free second search phase can have anchored.
	Fallbacks int `json:"fallbacks"`
	// Divergences counts cycles where some waypoint was more than the
	// truth margin closer than the tracked one.
	Divergences int `json:"divergences"`

	// Statistics over the absolute lateral error of tracked cycles.
	LateralMeanM float64 `json:"lateral_mean_m"`
	LateralP50M  float64 `json:"lateral_p50_m"`
	LateralP95M  float64 `json:"lateral_p95_m"`
	LateralMaxM  float64 `json:"lateral_max_m"`
}

// Run replays src against l and returns the aggregate report plus the
// per-cycle results in order. The source is drained to io.EOF unless
// ctx is cancelled first.
func Run(ctx context.Context, l *lane.Lane, src posefeed.Source, cfg Config) (*Report, []Result, error) {
	if err := l.Validate(); err != nil {
		return nil, nil, err
	}

	if cfg.Tracker == (tracker.Config{}) {
		cfg.Tracker = tracker.DefaultConfig()
	}
	if cfg.Direction == (lane.DirectionConfig{}) {
		cfg.Direction = lane.DefaultDirectionConfig()
	}
	if cfg.TruthMargin <= 0 {
		cfg.TruthMargin = defaultTruthMargin
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	dir, dirErr := cfg.Direction.Classify(l)

	report := &Report{
		Lane:               l.Name,
		Direction:          dir.String(),
		DirectionAmbiguous: dirErr != nil,
		IndexMin:           tracker.Unset,
		IndexMax:           tracker.Unset,
	}

	var pending []lanedb.Sample
	if cfg.Record != nil {
		id, err := cfg.Record.CreateSession(l.Name, cfg.PoseSource, cfg.Notes)
		if err != nil {
			return nil, nil, fmt.Errorf("create replay session: %w", err)
		}
		report.SessionID = id
	}

	trk := tracker.New(cfg.Tracker)
	truth := newWaypointIndex(l)

	var (
		results     []Result
		lateralAbs  []float64
		lastTracked = tracker.Unset
		lastNanos   int64
	)

	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		sample, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read pose: %w", err)
		}

		if cfg.Pace && lastNanos != 0 {
			gap := time.Duration(sample.TimeUnixNanos - lastNanos)
			if gap > maxPaceGap {
				gap = maxPaceGap
			}
			if gap > 0 {
				clock.Sleep(gap)
			}
		}
		lastNanos = sample.TimeUnixNanos

		index := trk.Track(l, sample.Pose)
		report.Samples++

		res := Result{Sample: sample, Index: index}
		if index != tracker.Unset {
			report.Tracked++
			if report.IndexMin == tracker.Unset || index < report.IndexMin {
				report.IndexMin = index
			}
			if index > report.IndexMax {
				report.IndexMax = index
			}
			if lastTracked != tracker.Unset && index < lastTracked {
				report.IndexRetreats++
			}
			lastTracked = index

			pos := sample.Pose.Position
			res.PlaneDist = geom.PlaneDistance(l.Position(index), pos)

			segStart, segEnd := index, index+1
			if segEnd > l.Len()-1 {
				segStart, segEnd = index-1, index
			}
			res.LateralError = geom.LateralError2D(l.Position(segStart), l.Position(segEnd), pos)
			lateralAbs = append(lateralAbs, math.Abs(res.LateralError))

			target := index + 1
			if target > l.Len()-1 {
				target = l.Len() - 1
			}
			res.Curvature = geom.Curvature(l.Position(target), sample.Pose)

			if res.PlaneDist > cfg.Tracker.ValidDistanceMeters {
				report.Fallbacks++
			}
			if truth.anyCloser(pos, res.PlaneDist-cfg.TruthMargin) {
				report.Divergences++
			}
		}
		results = append(results, res)

		if report.SessionID != "" {
			pending = append(pending, sessionRow(report.Samples-1, dir, res))
			if len(pending) >= cfg.BatchSize {
				if err := cfg.Record.AppendSamples(report.SessionID, pending); err != nil {
					return nil, nil, fmt.Errorf("record replay batch: %w", err)
				}
				pending = pending[:0]
			}
		}
	}

	if report.SessionID != "" && len(pending) > 0 {
		if err := cfg.Record.AppendSamples(report.SessionID, pending); err != nil {
			return nil, nil, fmt.Errorf("record replay batch: %w", err)
		}
	}

	if len(lateralAbs) > 0 {
		report.LateralMeanM = stat.Mean(lateralAbs, nil)
		sorted := make([]float64, len(lateralAbs))
		copy(sorted, lateralAbs)
		sort.Float64s(sorted)
		report.LateralP50M = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		report.LateralP95M = stat.Quantile(0.95, stat.Empirical, sorted, nil)
		report.LateralMaxM = floats.Max(sorted)
	}

	return report, results, nil
}

func sessionRow(seq int, dir lane.Direction, res Result) lanedb.Sample {
	pos := res.Sample.Pose.Position
	return lanedb.Sample{
		Seq:           seq,
		TUnixNanos:    res.Sample.TimeUnixNanos,
		X:             pos.X,
		Y:             pos.Y,
		Z:             pos.Z,
		Yaw:           res.Sample.Pose.Yaw(),
		SpeedMPS:      res.Sample.SpeedMPS,
		TrackedIndex:  res.Index,
		Direction:     dir.String(),
		LateralErrorM: res.LateralError,
		Curvature:     res.Curvature,
		PlaneDistM:    res.PlaneDist,
	}
}

// Summary renders the report as a short human-readable block for CLI
// output.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lane %s: %d samples, %d tracked, direction %s", r.Lane, r.Samples, r.Tracked, r.Direction)
	if r.DirectionAmbiguous {
		b.WriteString(" (ambiguous)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "index span [%d, %d], %d retreats, %d fallbacks, %d divergences\n",
		r.IndexMin, r.IndexMax, r.IndexRetreats, r.Fallbacks, r.Divergences)
	fmt.Fprintf(&b, "lateral error m: mean %.3f, p50 %.3f, p95 %.3f, max %.3f",
		r.LateralMeanM, r.LateralP50M, r.LateralP95M, r.LateralMaxM)
	if r.SessionID != "" {
		fmt.Fprintf(&b, "\nrecorded session %s", r.SessionID)
	}
	return b.String()
}
