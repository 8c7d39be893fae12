package monitor

import (
	"sync"

	"github.com/banshee-data/lanetrack/internal/config"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/tracker"
)

// ParamStore guards the live tuning config shared between the params
// endpoint and the tracking loop. The loop materializes tracker and
// direction configs from it every cycle, so POSTed updates take effect
// on the next pose.
type ParamStore struct {
	mu  sync.RWMutex
	cfg *config.TuningConfig
}

// NewParamStore wraps the given config. Passing nil starts from an
// empty config, so every value reads as its default.
func NewParamStore(cfg *config.TuningConfig) *ParamStore {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &ParamStore{cfg: cfg}
}

// Effective returns the current config with all defaults filled in.
func (s *ParamStore) Effective() *config.TuningConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Effective()
}

// Apply validates a partial update and merges its non-nil fields into
// the live config.
func (s *ParamStore) Apply(partial *config.TuningConfig) error {
	if err := partial.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Merge(partial)
	return nil
}

// TrackerConfig materializes the closest-search gates.
func (s *ParamStore) TrackerConfig() tracker.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.TrackerConfig()
}

// DirectionConfig materializes the direction classifier thresholds.
func (s *ParamStore) DirectionConfig() lane.DirectionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.DirectionConfig()
}
