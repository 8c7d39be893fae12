// Package main renders a lane and an optional driven trajectory to a
// PNG for offline inspection.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/posefeed"
)

var (
	laneFile  = flag.String("lane", "", "Lane CSV to plot")
	laneName  = flag.String("lane-name", "", "Stored lane to load from the database")
	dbFile    = flag.String("db", "lanetrack.db", "Path to the SQLite database file")
	sessionID = flag.String("session", "", "Recorded session to overlay as a trajectory")
	poseCSV   = flag.String("poses", "", "Pose log CSV to overlay as a trajectory")
	output    = flag.String("out", "lane.png", "Output PNG path")
)

var (
	laneColor = color.RGBA{R: 59, G: 82, B: 139, A: 255}
	trajColor = color.RGBA{R: 53, G: 183, B: 121, A: 255}
)

func main() {
	flag.Parse()

	if *laneFile == "" && *laneName == "" {
		log.Fatal("A lane is required: pass -lane <csv> or -lane-name <stored lane>")
	}

	var db *lanedb.DB
	if *laneName != "" || *sessionID != "" {
		var err error
		db, err = lanedb.Open(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open lane database: %v", err)
		}
		defer db.Close()
	}

	var l *lane.Lane
	var err error
	if *laneFile != "" {
		l, err = lane.LoadCSV(*laneFile)
	} else {
		l, err = db.GetLaneByName(*laneName)
	}
	if err != nil {
		log.Fatalf("Failed to load lane: %v", err)
	}

	trajectory, err := loadTrajectory(db)
	if err != nil {
		log.Fatalf("Failed to load trajectory: %v", err)
	}

	p, err := buildPlot(l, trajectory)
	if err != nil {
		log.Fatalf("Failed to build plot: %v", err)
	}
	if err := p.Save(8*vg.Inch, 8*vg.Inch, *output); err != nil {
		log.Fatalf("Failed to save plot: %v", err)
	}
	log.Printf("Wrote %s (%d waypoints, %d trajectory points)", *output, l.Len(), len(trajectory))
}

// loadTrajectory reads the overlay points from a recorded session or a
// pose log CSV. Returns nil when neither is requested.
func loadTrajectory(db *lanedb.DB) (plotter.XYs, error) {
	switch {
	case *sessionID != "":
		samples, err := db.SessionSamples(*sessionID)
		if err != nil {
			return nil, err
		}
		pts := make(plotter.XYs, len(samples))
		for i, s := range samples {
			pts[i] = plotter.XY{X: s.X, Y: s.Y}
		}
		return pts, nil
	case *poseCSV != "":
		src, err := posefeed.OpenCSV(*poseCSV)
		if err != nil {
			return nil, err
		}
		defer src.Close()

		var pts plotter.XYs
		for {
			sample, err := src.Next()
			if errors.Is(err, io.EOF) {
				return pts, nil
			}
			if err != nil {
				return nil, err
			}
			pts = append(pts, plotter.XY{X: sample.Pose.Position.X, Y: sample.Pose.Position.Y})
		}
	default:
		return nil, nil
	}
}

func buildPlot(l *lane.Lane, trajectory plotter.XYs) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Lane %s (%d waypoints)", l.Name, l.Len())
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	lanePts := make(plotter.XYs, l.Len())
	for i := range lanePts {
		pos := l.Position(i)
		lanePts[i] = plotter.XY{X: pos.X, Y: pos.Y}
	}

	laneLine, err := plotter.NewLine(lanePts)
	if err != nil {
		return nil, fmt.Errorf("lane line: %w", err)
	}
	laneLine.Color = laneColor
	laneLine.Width = vg.Points(1)
	p.Add(laneLine)
	p.Legend.Add("lane", laneLine)

	waypoints, err := plotter.NewScatter(lanePts)
	if err != nil {
		return nil, fmt.Errorf("waypoint markers: %w", err)
	}
	waypoints.GlyphStyle.Radius = vg.Points(2)
	waypoints.GlyphStyle.Color = laneColor
	p.Add(waypoints)

	if len(trajectory) > 0 {
		trajLine, err := plotter.NewLine(trajectory)
		if err != nil {
			return nil, fmt.Errorf("trajectory line: %w", err)
		}
		trajLine.Color = trajColor
		trajLine.Width = vg.Points(1)
		p.Add(trajLine)
		p.Legend.Add("trajectory", trajLine)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	squareAxes(p, append(append(plotter.XYs{}, lanePts...), trajectory...))
	return p, nil
}

// squareAxes gives both axes the same span so the track keeps its shape
// on the square canvas.
func squareAxes(p *plot.Plot, pts plotter.XYs) {
	if len(pts) == 0 {
		return
	}

	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts[1:] {
		minX = math.Min(minX, pt.X)
		maxX = math.Max(maxX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}

	half := math.Max(maxX-minX, maxY-minY) / 2 * 1.05
	if half < 1.0 {
		half = 1.0
	}
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2

	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half
}
