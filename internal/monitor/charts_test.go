package monitor

import (
	"net/http"
	"strings"
	"testing"

	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/testutil"
)

func TestLaneChart(t *testing.T) {
	current := testLane("live", 5)
	board := NewStatusBoard()
	board.Publish(TrackStatus{Lane: "live", Index: 2, X: 2.1, Y: 0.05, SpeedMPS: 5})
	server := NewWebServer(WebServerConfig{
		Address:     ":0",
		Board:       board,
		CurrentLane: func() *lane.Lane { return current },
	})

	rec := testutil.NewTestRecorder()
	server.setupRoutes().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/debug/lane/chart"))

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if ctype := rec.Header().Get("Content-Type"); !strings.Contains(ctype, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ctype)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "echarts") {
		t.Error("Chart body should reference echarts")
	}
	if !strings.Contains(body, "vehicle") {
		t.Error("Chart should include the vehicle series when the tracked lane matches")
	}
}

func TestLaneChartNoLane(t *testing.T) {
	server := NewWebServer(WebServerConfig{Address: ":0"})

	rec := testutil.NewTestRecorder()
	server.setupRoutes().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/debug/lane/chart"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestSessionChart(t *testing.T) {
	db := setupTestDB(t)
	sessionID, err := db.CreateSession("track-a", "csv", "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	samples := []lanedb.Sample{
		{Seq: 0, LateralErrorM: 0.05, PlaneDistM: 0.11},
		{Seq: 1, LateralErrorM: 0.04, PlaneDistM: 0.10},
	}
	if err := db.AppendSamples(sessionID, samples); err != nil {
		t.Fatalf("AppendSamples failed: %v", err)
	}

	server := NewWebServer(WebServerConfig{Address: ":0", DB: db})
	mux := server.setupRoutes()

	rec := testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/debug/session/chart?session_id="+sessionID))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "echarts") {
		t.Error("Chart body should reference echarts")
	}

	rec = testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/debug/session/chart"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	rec = testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/debug/session/chart?session_id=unknown"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestSessionChartNoDB(t *testing.T) {
	server := NewWebServer(WebServerConfig{Address: ":0"})

	rec := testutil.NewTestRecorder()
	server.setupRoutes().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/debug/session/chart?session_id=x"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusInternalServerError)
}
