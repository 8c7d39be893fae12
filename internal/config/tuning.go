package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/tracker"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for tuning parameters. The
// schema matches the /api/track/params endpoint so the same JSON can
// be used for startup configuration and runtime inspection. All fields
// are pointers; omitted fields fall back to the Get* defaults, so
// partial configs are safe.
type TuningConfig struct {
	// Closest-search gates
	ValidDistanceMeters *float64 `json:"valid_distance_m,omitempty"`
	ValidAngleRad       *float64 `json:"valid_angle_rad,omitempty"`

	// Direction classifier thresholds
	PositionEpsilonMeters *float64 `json:"position_epsilon_m,omitempty"`
	VelocityEpsilonMPS    *float64 `json:"velocity_epsilon_mps,omitempty"`

	// Pose feed params
	UDPPort       *int     `json:"udp_port,omitempty"`
	SerialBaud    *int     `json:"serial_baud,omitempty"`
	DatumLat      *float64 `json:"datum_lat,omitempty"`
	DatumLon      *float64 `json:"datum_lon,omitempty"`
	PoseStaleTime *string  `json:"pose_stale_time,omitempty"` // duration string like "500ms"

	// Session recording params
	SampleBatchSize *int `json:"sample_batch_size,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd tool dirs
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ValidDistanceMeters != nil && *c.ValidDistanceMeters <= 0 {
		return fmt.Errorf("valid_distance_m must be positive, got %f", *c.ValidDistanceMeters)
	}
	if c.ValidAngleRad != nil {
		if *c.ValidAngleRad <= 0 || *c.ValidAngleRad > math.Pi {
			return fmt.Errorf("valid_angle_rad must be in (0, pi], got %f", *c.ValidAngleRad)
		}
	}
	if c.PositionEpsilonMeters != nil && *c.PositionEpsilonMeters < 0 {
		return fmt.Errorf("position_epsilon_m must be non-negative, got %f", *c.PositionEpsilonMeters)
	}
	if c.VelocityEpsilonMPS != nil && *c.VelocityEpsilonMPS < 0 {
		return fmt.Errorf("velocity_epsilon_mps must be non-negative, got %f", *c.VelocityEpsilonMPS)
	}
	if c.UDPPort != nil {
		if *c.UDPPort < 1 || *c.UDPPort > 65535 {
			return fmt.Errorf("udp_port must be in 1-65535, got %d", *c.UDPPort)
		}
	}
	if c.SerialBaud != nil && *c.SerialBaud <= 0 {
		return fmt.Errorf("serial_baud must be positive, got %d", *c.SerialBaud)
	}
	if c.PoseStaleTime != nil && *c.PoseStaleTime != "" {
		if _, err := time.ParseDuration(*c.PoseStaleTime); err != nil {
			return fmt.Errorf("invalid pose_stale_time '%s': %w", *c.PoseStaleTime, err)
		}
	}
	if c.SampleBatchSize != nil && *c.SampleBatchSize <= 0 {
		return fmt.Errorf("sample_batch_size must be positive, got %d", *c.SampleBatchSize)
	}
	return nil
}

// GetValidDistanceMeters returns the valid_distance_m value or the default.
func (c *TuningConfig) GetValidDistanceMeters() float64 {
	if c.ValidDistanceMeters == nil {
		return 5.0 // default
	}
	return *c.ValidDistanceMeters
}

// GetValidAngleRad returns the valid_angle_rad value or the default.
func (c *TuningConfig) GetValidAngleRad() float64 {
	if c.ValidAngleRad == nil {
		return math.Pi / 2 // default
	}
	return *c.ValidAngleRad
}

// GetPositionEpsilonMeters returns the position_epsilon_m value or the default.
func (c *TuningConfig) GetPositionEpsilonMeters() float64 {
	if c.PositionEpsilonMeters == nil {
		return 1e-3 // default
	}
	return *c.PositionEpsilonMeters
}

// GetVelocityEpsilonMPS returns the velocity_epsilon_mps value or the default.
func (c *TuningConfig) GetVelocityEpsilonMPS() float64 {
	if c.VelocityEpsilonMPS == nil {
		return 0.01 // default
	}
	return *c.VelocityEpsilonMPS
}

// GetUDPPort returns the udp_port value or the default.
func (c *TuningConfig) GetUDPPort() int {
	if c.UDPPort == nil {
		return 4242 // default
	}
	return *c.UDPPort
}

// GetSerialBaud returns the serial_baud value or the default.
func (c *TuningConfig) GetSerialBaud() int {
	if c.SerialBaud == nil {
		return 115200 // default
	}
	return *c.SerialBaud
}

// GetDatumLat returns the datum_lat value or the default.
func (c *TuningConfig) GetDatumLat() float64 {
	if c.DatumLat == nil {
		return 0
	}
	return *c.DatumLat
}

// GetDatumLon returns the datum_lon value or the default.
func (c *TuningConfig) GetDatumLon() float64 {
	if c.DatumLon == nil {
		return 0
	}
	return *c.DatumLon
}

// GetPoseStaleTime parses and returns the PoseStaleTime as a time.Duration.
func (c *TuningConfig) GetPoseStaleTime() time.Duration {
	if c.PoseStaleTime == nil || *c.PoseStaleTime == "" {
		return 500 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.PoseStaleTime)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}

// GetSampleBatchSize returns the sample_batch_size value or the default.
func (c *TuningConfig) GetSampleBatchSize() int {
	if c.SampleBatchSize == nil {
		return 256 // default
	}
	return *c.SampleBatchSize
}

// Effective returns a copy with every field populated from the Get*
// accessors, so defaults are visible when the config is serialized for
// the params endpoint.
func (c *TuningConfig) Effective() *TuningConfig {
	stale := c.GetPoseStaleTime().String()
	return &TuningConfig{
		ValidDistanceMeters:   ptrFloat64(c.GetValidDistanceMeters()),
		ValidAngleRad:         ptrFloat64(c.GetValidAngleRad()),
		PositionEpsilonMeters: ptrFloat64(c.GetPositionEpsilonMeters()),
		VelocityEpsilonMPS:    ptrFloat64(c.GetVelocityEpsilonMPS()),
		UDPPort:               ptrInt(c.GetUDPPort()),
		SerialBaud:            ptrInt(c.GetSerialBaud()),
		DatumLat:              ptrFloat64(c.GetDatumLat()),
		DatumLon:              ptrFloat64(c.GetDatumLon()),
		PoseStaleTime:         ptrString(stale),
		SampleBatchSize:       ptrInt(c.GetSampleBatchSize()),
	}
}

// Merge overwrites this config's fields with any non-nil fields from
// partial. Used by the params endpoint to apply runtime updates without
// disturbing settings the caller did not mention.
func (c *TuningConfig) Merge(partial *TuningConfig) {
	if partial.ValidDistanceMeters != nil {
		c.ValidDistanceMeters = partial.ValidDistanceMeters
	}
	if partial.ValidAngleRad != nil {
		c.ValidAngleRad = partial.ValidAngleRad
	}
	if partial.PositionEpsilonMeters != nil {
		c.PositionEpsilonMeters = partial.PositionEpsilonMeters
	}
	if partial.VelocityEpsilonMPS != nil {
		c.VelocityEpsilonMPS = partial.VelocityEpsilonMPS
	}
	if partial.UDPPort != nil {
		c.UDPPort = partial.UDPPort
	}
	if partial.SerialBaud != nil {
		c.SerialBaud = partial.SerialBaud
	}
	if partial.DatumLat != nil {
		c.DatumLat = partial.DatumLat
	}
	if partial.DatumLon != nil {
		c.DatumLon = partial.DatumLon
	}
	if partial.PoseStaleTime != nil {
		c.PoseStaleTime = partial.PoseStaleTime
	}
	if partial.SampleBatchSize != nil {
		c.SampleBatchSize = partial.SampleBatchSize
	}
}

// TrackerConfig materializes the closest-search gates for the tracker.
func (c *TuningConfig) TrackerConfig() tracker.Config {
	return tracker.Config{
		ValidDistanceMeters: c.GetValidDistanceMeters(),
		ValidAngleRad:       c.GetValidAngleRad(),
	}
}

// DirectionConfig materializes the direction classifier thresholds.
func (c *TuningConfig) DirectionConfig() lane.DirectionConfig {
	return lane.DirectionConfig{
		PositionEpsilonMeters: c.GetPositionEpsilonMeters(),
		VelocityEpsilonMPS:    c.GetVelocityEpsilonMPS(),
	}
}
