package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/banshee-data/lanetrack/internal/httputil"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/monitoring"
)

// Client provides HTTP operations against a running tracking daemon.
// The track-status tool uses it instead of talking to the endpoints
// by hand.
type Client struct {
	HTTPClient httputil.HTTPClient
	BaseURL    string
}

// NewClient creates a new monitoring client. Passing a nil client
// installs a default with a 30 second timeout.
func NewClient(httpClient httputil.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})
	}
	return &Client{
		HTTPClient: httpClient,
		BaseURL:    baseURL,
	}
}

func (c *Client) getJSON(path string, v interface{}) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// FetchStatus retrieves the latest tracking status from the daemon.
func (c *Client) FetchStatus() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.getJSON("/api/track/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// FetchVersion retrieves the daemon's build identification.
func (c *Client) FetchVersion() (map[string]string, error) {
	var v map[string]string
	if err := c.getJSON("/api/version", &v); err != nil {
		return nil, err
	}
	return v, nil
}

// FetchLanes lists the lanes the daemon knows about.
func (c *Client) FetchLanes() ([]lanedb.LaneMeta, error) {
	var metas []lanedb.LaneMeta
	if err := c.getJSON("/api/lanes", &metas); err != nil {
		return nil, err
	}
	return metas, nil
}

// FetchLaneGeoJSON downloads a lane as GeoJSON. An empty name asks
// for the lane currently being tracked.
func (c *Client) FetchLaneGeoJSON(name string) ([]byte, error) {
	path := "/api/lanes/geojson"
	if name != "" {
		path += "?name=" + url.QueryEscape(name)
	}
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// SetParams sends a partial tuning config update to /api/track/params.
// The params map can contain any TuningConfig field names with their
// values; fields not mentioned keep their current settings.
func (c *Client) SetParams(params map[string]interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal tuning params: %w", err)
	}

	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/track/params", "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	monitoring.Logf("[Monitor] applied tuning params: %s", string(data))
	return nil
}
