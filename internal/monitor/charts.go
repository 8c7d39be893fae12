package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lanetrack/internal/httputil"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// viridis ramp shared by the chart visual maps
var chartColorRamp = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// handleLaneChart renders a quick scatter plot (HTML) of a lane's
// waypoints coloured by target velocity, with the current vehicle
// position marked when one has been published. Debugging-only
// endpoint to eyeball a lane without external map tooling.
// Query params:
//   - name (optional; defaults to the lane currently being tracked)
func (ws *WebServer) handleLaneChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	l, done := ws.resolveLane(w, r)
	if done {
		return
	}
	if l.Len() == 0 {
		httputil.NotFound(w, "lane has no waypoints")
		return
	}

	data := make([]opts.ScatterData, 0, l.Len())
	maxAbs := 0.0
	maxVel := 0.0
	for i, wp := range l.Waypoints {
		p := wp.Pose.Position
		if math.Abs(p.X) > maxAbs {
			maxAbs = math.Abs(p.X)
		}
		if math.Abs(p.Y) > maxAbs {
			maxAbs = math.Abs(p.Y)
		}
		vel := math.Abs(wp.VelocityMPS)
		if vel > maxVel {
			maxVel = vel
		}
		data = append(data, opts.ScatterData{
			Value: []interface{}{p.X, p.Y, vel},
			Name:  fmt.Sprintf("wp %d", i),
		})
	}

	// Small padding so edge waypoints stay visible
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxVel == 0 {
		maxVel = 1
	}

	// Square plot with symmetric axis ranges so geometry is not skewed
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Lane Waypoints", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Lane Waypoints", Subtitle: fmt.Sprintf("lane=%s waypoints=%d", l.Name, l.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVel),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: chartColorRamp},
		}),
	)

	scatter.AddSeries("waypoints", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	if snap := ws.board.Latest(); snap != nil && snap.Lane == l.Name {
		vehicle := []opts.ScatterData{{
			Value:  []interface{}{snap.X, snap.Y, math.Abs(snap.SpeedMPS)},
			Name:   fmt.Sprintf("vehicle (index %d)", snap.Index),
			Symbol: "triangle",
		}}
		scatter.AddSeries("vehicle", vehicle, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleSessionChart renders lateral error and waypoint distance over
// a recorded replay session as a line chart. Query params:
//
//	session_id (required)
func (ws *WebServer) handleSessionChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured for session lookup")
		return
	}

	samples, err := ws.db.SessionSamples(sessionID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("session samples: %v", err))
		return
	}
	if len(samples) == 0 {
		httputil.NotFound(w, "no samples recorded for session")
		return
	}

	xs := make([]string, 0, len(samples))
	lateral := make([]opts.LineData, 0, len(samples))
	planeDist := make([]opts.LineData, 0, len(samples))
	for _, s := range samples {
		xs = append(xs, strconv.Itoa(s.Seq))
		lateral = append(lateral, opts.LineData{Value: s.LateralErrorM})
		planeDist = append(planeDist, opts.LineData{Value: s.PlaneDistM})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Replay Session", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Replay Session Errors", Subtitle: fmt.Sprintf("session=%s samples=%d", sessionID, len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sample"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "meters"}),
	)
	line.SetXAxis(xs).
		AddSeries("lateral error (m)", lateral).
		AddSeries("waypoint distance (m)", planeDist)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
