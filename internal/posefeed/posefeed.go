package posefeed

import (
	"io"

	"github.com/banshee-data/lanetrack/internal/geom"
)

// Sample is one timed pose observation.
type Sample struct {
	TimeUnixNanos int64
	Pose          geom.Pose
	SpeedMPS      float64
}

// Source yields pose samples in arrival order. Next returns io.EOF when
// the feed is exhausted. Sources that hold OS resources also implement
// io.Closer.
type Source interface {
	Next() (Sample, error)
}

// ChanSource adapts a sample channel to the Source interface. Next
// blocks until a sample arrives and returns io.EOF once the channel is
// closed, which is how the UDP listener signals shutdown.
type ChanSource struct {
	C <-chan Sample
}

func (s ChanSource) Next() (Sample, error) {
	sample, ok := <-s.C
	if !ok {
		return Sample{}, io.EOF
	}
	return sample, nil
}
