package lane

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/lanetrack/internal/geom"
)

// Direction is the traversal direction of a lane.
type Direction int

const (
	// DirectionUnknown means neither classifier could decide.
	DirectionUnknown Direction = iota
	// DirectionForward means the lane is traversed nose-first.
	DirectionForward
	// DirectionBackward means the lane is traversed in reverse.
	DirectionBackward
)

// ErrAmbiguousDirection is returned when the position-based and
// velocity-based classifiers are both decisive and disagree. Callers
// must not default to forward in that case.
var ErrAmbiguousDirection = errors.New("lane direction ambiguous: position and velocity classifiers disagree")

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	case DirectionUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DirectionConfig holds the decision thresholds for direction
// classification.
type DirectionConfig struct {
	// PositionEpsilonMeters is the minimum forward offset between
	// consecutive waypoints for the pair to decide the direction.
	PositionEpsilonMeters float64
	// VelocityEpsilonMPS is the minimum waypoint speed for a velocity
	// to decide the direction.
	VelocityEpsilonMPS float64
}

// DefaultDirectionConfig returns the thresholds used in production.
func DefaultDirectionConfig() DirectionConfig {
	return DirectionConfig{
		PositionEpsilonMeters: 1e-3,
		VelocityEpsilonMPS:    0.01,
	}
}

// ByPosition classifies the lane from waypoint geometry alone. Each
// consecutive pair expresses the later waypoint in the earlier one's
// frame; the first pair whose forward offset exceeds the position
// epsilon decides. Unknown when no pair is decisive or the lane has
// fewer than two waypoints.
func (c DirectionConfig) ByPosition(l *Lane) Direction {
	if l.Len() < 2 {
		return DirectionUnknown
	}
	for i := 1; i < l.Len(); i++ {
		relX := geom.ToRelative3D(l.Position(i), l.PoseAt(i-1)).X
		if math.Abs(relX) < c.PositionEpsilonMeters {
			continue
		}
		if relX < 0 {
			return DirectionBackward
		}
		return DirectionForward
	}
	return DirectionUnknown
}

// ByVelocity classifies the lane from waypoint velocities alone. The
// first waypoint whose speed exceeds the velocity epsilon decides.
// Unknown when every waypoint is slower than the epsilon.
func (c DirectionConfig) ByVelocity(l *Lane) Direction {
	for i := range l.Waypoints {
		vel := l.Waypoints[i].VelocityMPS
		if math.Abs(vel) < c.VelocityEpsilonMPS {
			continue
		}
		if vel < 0 {
			return DirectionBackward
		}
		return DirectionForward
	}
	return DirectionUnknown
}

// Classify combines both classifiers. When both are decisive and
// disagree it returns Unknown with ErrAmbiguousDirection; otherwise
// the position result wins when decisive, then the velocity result.
func (c DirectionConfig) Classify(l *Lane) (Direction, error) {
	pos := c.ByPosition(l)
	vel := c.ByVelocity(l)

	if pos != vel && pos != DirectionUnknown && vel != DirectionUnknown {
		return DirectionUnknown, ErrAmbiguousDirection
	}
	if pos != DirectionUnknown {
		return pos, nil
	}
	return vel, nil
}

// Direction classifies the lane with the default thresholds.
func (l *Lane) Direction() (Direction, error) {
	return DefaultDirectionConfig().Classify(l)
}

// DirectionByPosition classifies by geometry with default thresholds.
func (l *Lane) DirectionByPosition() Direction {
	return DefaultDirectionConfig().ByPosition(l)
}

// DirectionByVelocity classifies by velocity with default thresholds.
func (l *Lane) DirectionByVelocity() Direction {
	return DefaultDirectionConfig().ByVelocity(l)
}

// ForwardFromPoses reports whether a pose sequence runs forward, by
// expressing the third pose in the frame of the second. It needs at
// least three poses.
func ForwardFromPoses(poses []geom.Pose) (bool, error) {
	if len(poses) < 3 {
		return false, fmt.Errorf("need at least 3 poses to judge direction, got %d", len(poses))
	}
	rel := geom.ToRelative2D(poses[2].Position, poses[1])
	return rel.X > 0.0, nil
}
