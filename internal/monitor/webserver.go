package monitor

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/banshee-data/lanetrack/internal/config"
	"github.com/banshee-data/lanetrack/internal/httputil"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/monitoring"
	"github.com/banshee-data/lanetrack/internal/units"
	"github.com/banshee-data/lanetrack/internal/version"
)

//go:embed status.html
var statusHTML embed.FS

// WebServer handles the HTTP interface of the tracking daemon. It
// serves health and status endpoints, tuning parameters, lane exports
// and debug charts.
type WebServer struct {
	address     string
	board       *StatusBoard
	params      *ParamStore
	db          *lanedb.DB
	currentLane func() *lane.Lane
	server      *http.Server
}

// WebServerConfig contains configuration options for the web server.
// Board and Params may be nil; empty instances are created so the
// endpoints stay functional. DB and CurrentLane are optional.
type WebServerConfig struct {
	Address     string
	Board       *StatusBoard
	Params      *ParamStore
	DB          *lanedb.DB
	CurrentLane func() *lane.Lane
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(cfg WebServerConfig) *WebServer {
	ws := &WebServer{
		address:     cfg.Address,
		board:       cfg.Board,
		params:      cfg.Params,
		db:          cfg.DB,
		currentLane: cfg.CurrentLane,
	}
	if ws.board == nil {
		ws.board = NewStatusBoard()
	}
	if ws.params == nil {
		ws.params = NewParamStore(nil)
	}
	if ws.currentLane == nil {
		ws.currentLane = func() *lane.Lane { return nil }
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: LoggingMiddleware(ws.setupRoutes()),
	}

	return ws
}

// Start begins the HTTP server in a goroutine and blocks until the
// context is cancelled, then shuts the server down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("[Monitor] HTTP server listening on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	monitoring.Logf("[Monitor] shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[Monitor] HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("[Monitor] HTTP server force close error: %v", err)
		}
	}
	return nil
}

// Close shuts down the web server immediately.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", ws.handleStatusPage)
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/version", ws.handleVersion)
	mux.HandleFunc("/api/track/status", ws.handleTrackStatus)
	mux.HandleFunc("/api/track/params", ws.handleTrackParams)
	mux.HandleFunc("/api/lanes", ws.handleLanes)
	mux.HandleFunc("/api/lanes/geojson", ws.handleLaneGeoJSON)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	mux.HandleFunc("/api/sessions/samples", ws.handleSessionSamples)
	mux.HandleFunc("/debug/lane/chart", ws.handleLaneChart)
	mux.HandleFunc("/debug/session/chart", ws.handleSessionChart)

	return mux
}

// handleHealth handles the health check endpoint.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "lanetrack", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func (ws *WebServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"service":    "lanetrack",
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// handleTrackStatus returns the latest published tracking cycle.
// Query params:
//
//	units (optional; converts speed for display, one of mps, mph, kmph, kph)
func (ws *WebServer) handleTrackStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	unitName := r.URL.Query().Get("units")
	if unitName != "" && !units.IsValid(unitName) {
		httputil.BadRequest(w, fmt.Sprintf("invalid units %q: valid values are %s", unitName, units.GetValidUnitsString()))
		return
	}

	resp := StatusResponse{UptimeSeconds: ws.board.Uptime().Seconds()}
	if snap := ws.board.Latest(); snap != nil {
		resp.Tracking = true
		resp.TrackStatus = snap
		if snap.PoseUnixNanos > 0 {
			resp.PoseAgeMS = float64(time.Since(time.Unix(0, snap.PoseUnixNanos)).Nanoseconds()) / 1e6
		}
		if unitName != "" {
			speed := units.ConvertSpeed(snap.SpeedMPS, unitName)
			resp.Speed = &speed
			resp.SpeedUnits = unitName
		}
	}
	httputil.WriteJSONOK(w, resp)
}

// handleTrackParams serves the live tuning config. GET returns the
// effective values with defaults filled in; POST applies a partial
// update where only the fields present in the body change.
func (ws *WebServer) handleTrackParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, ws.params.Effective())
	case http.MethodPost:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("read body: %v", err))
			return
		}
		partial := config.EmptyTuningConfig()
		if err := json.Unmarshal(data, partial); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("decode tuning params: %v", err))
			return
		}
		if err := ws.params.Apply(partial); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		monitoring.Logf("[Monitor] applied tuning params: %s", string(data))
		httputil.WriteJSONOK(w, ws.params.Effective())
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleLanes lists lanes from the database, falling back to the lane
// currently being tracked when no database is configured.
func (ws *WebServer) handleLanes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	if ws.db != nil {
		metas, err := ws.db.ListLanes()
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("list lanes: %v", err))
			return
		}
		httputil.WriteJSONOK(w, metas)
		return
	}

	metas := []lanedb.LaneMeta{}
	if l := ws.currentLane(); l != nil {
		metas = append(metas, lanedb.LaneMeta{Name: l.Name, WaypointCount: l.Len()})
	}
	httputil.WriteJSONOK(w, metas)
}

// resolveLane finds the lane named in the query, or the currently
// tracked lane when the name is empty. The bool reports whether a
// response was already written.
func (ws *WebServer) resolveLane(w http.ResponseWriter, r *http.Request) (*lane.Lane, bool) {
	name := r.URL.Query().Get("name")
	if name == "" {
		l := ws.currentLane()
		if l == nil {
			httputil.NotFound(w, "no lane loaded")
			return nil, true
		}
		return l, false
	}

	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured for lane lookup")
		return nil, true
	}
	l, err := ws.db.GetLaneByName(name)
	if err != nil {
		if errors.Is(err, lanedb.ErrNotFound) {
			httputil.NotFound(w, fmt.Sprintf("no lane named %q", name))
		} else {
			httputil.InternalServerError(w, fmt.Sprintf("get lane: %v", err))
		}
		return nil, true
	}
	return l, false
}

// handleLaneGeoJSON exports a lane as a GeoJSON FeatureCollection.
// Query params:
//
//	name (optional; defaults to the lane currently being tracked)
func (ws *WebServer) handleLaneGeoJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	l, done := ws.resolveLane(w, r)
	if done {
		return
	}
	body, err := l.GeoJSON()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("encode lane geojson: %v", err))
		return
	}
	httputil.WriteGeoJSON(w, body)
}

func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured for session lookup")
		return
	}
	sessions, err := ws.db.ListSessions()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list sessions: %v", err))
		return
	}
	httputil.WriteJSONOK(w, sessions)
}

// handleSessionSamples returns the recorded samples of one replay
// session. Query params:
//
//	session_id (required)
func (ws *WebServer) handleSessionSamples(w http.ResponseWriter, r *http.Request) {
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
	httputil.WriteJSONOK(w, samples)
}

// handleStatusPage renders the human-readable status page.
func (ws *WebServer) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	tmpl, err := template.ParseFS(statusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		Version     string
		HTTPAddress string
		Uptime      string
		Status      *TrackStatus
	}{
		Version:     version.String(),
		HTTPAddress: ws.address,
		Uptime:      ws.board.Uptime().Round(time.Second).String(),
		Status:      ws.board.Latest(),
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}
