package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTracker_Lifecycle covers the caller-owned state wrapper around
// Update: anchoring, lane swaps and clearing.
func TestTracker_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("starts unset", func(t *testing.T) {
		t.Parallel()
		tr := New(DefaultConfig())
		assert.Equal(t, Unset, tr.Index())
		assert.Nil(t, tr.Lane())
	})

	t.Run("anchors on first cycle", func(t *testing.T) {
		t.Parallel()
		tr := New(DefaultConfig())
		l := straightLane(5, 1.0, 2.0)

		got := tr.Track(l, poseAt(2.1, 0, 0))
		assert.Equal(t, 2, got)
		assert.Equal(t, 2, tr.Index())
		assert.Same(t, l, tr.Lane())
	})

	t.Run("advances across cycles", func(t *testing.T) {
		t.Parallel()
		tr := New(DefaultConfig())
		l := straightLane(10, 1.0, 2.0)

		last := Unset
		for x := 0.0; x <= 9.0; x += 0.5 {
			got := tr.Track(l, poseAt(x, 0, 0))
			require.GreaterOrEqual(t, got, last, "index regressed at x=%.1f", x)
			last = got
		}
		assert.Equal(t, 9, last)
	})

	t.Run("new lane re-anchors", func(t *testing.T) {
		t.Parallel()
		tr := New(DefaultConfig())
		first := straightLane(5, 1.0, 2.0)
		tr.Track(first, poseAt(3.1, 0, 0))
		require.Equal(t, 3, tr.Index())

		// A replanned lane arrives: same geometry, fresh allocation.
		second := straightLane(5, 1.0, 2.0)
		got := tr.Track(second, poseAt(1.1, 0, 0))
		assert.Equal(t, 1, got, "fresh lane must re-anchor, not reuse the stale index")
		assert.Same(t, second, tr.Lane())
	})

	t.Run("same lane keeps state", func(t *testing.T) {
		t.Parallel()
		tr := New(DefaultConfig())
		l := switchbackLane()

		tr.Track(l, poseAt(2, 0, 0))
		got := tr.Track(l, poseAt(1.6, 0, 0))
		assert.Equal(t, 3, got)
	})

	t.Run("nil lane clears", func(t *testing.T) {
		t.Parallel()
		tr := New(DefaultConfig())
		l := straightLane(5, 1.0, 2.0)
		tr.Track(l, poseAt(2, 0, 0))

		got := tr.Track(nil, poseAt(2, 0, 0))
		assert.Equal(t, Unset, got)
		assert.Nil(t, tr.Lane())
	})

	t.Run("set lane resets index", func(t *testing.T) {
		t.Parallel()
		tr := New(DefaultConfig())
		l := straightLane(5, 1.0, 2.0)
		tr.Track(l, poseAt(3.1, 0, 0))
		require.Equal(t, 3, tr.Index())

		tr.SetLane(l)
		assert.Equal(t, Unset, tr.Index())
	})
}

func TestTracker_ShortLaneNeverPanics(t *testing.T) {
	t.Parallel()
	tr := New(DefaultConfig())
	l := straightLane(1, 1.0, 2.0)

	got := tr.Track(l, poseAt(0, 0, 0))
	assert.Equal(t, Unset, got)

	// A later valid lane recovers.
	got = tr.Track(straightLane(5, 1.0, 2.0), poseAt(1.1, 0, 0))
	assert.Equal(t, 1, got)
}
