package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SendLater/internal/models"
)

type stubHandle struct{ stopped bool }

func (h *stubHandle) Stop() bool {
	was := h.stopped
	h.stopped = true
	return !was
}

func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("insert refuses duplicates", func(t *testing.T) {
		t.Parallel()

		s := NewStore()
		first := &pendingJob{job: models.ScheduledJob{ID: "a", To: "first@x.com"}, handle: &stubHandle{}}
		second := &pendingJob{job: models.ScheduledJob{ID: "a", To: "second@x.com"}, handle: &stubHandle{}}

		assert.True(t, s.Insert(first))
		assert.False(t, s.Insert(second))

		got, ok := s.Get("a")
		require.True(t, ok)
		assert.Equal(t, "first@x.com", got.job.To)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		t.Parallel()

		s := NewStore()
		s.Insert(&pendingJob{job: models.ScheduledJob{ID: "a"}, handle: &stubHandle{}})

		s.Remove("a")
		s.Remove("a")
		s.Remove("never-there")

		assert.False(t, s.Has("a"))
		assert.Zero(t, s.Len())
	})

	t.Run("snapshot is a copy without handles", func(t *testing.T) {
		t.Parallel()

		s := NewStore()
		when := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		s.Insert(&pendingJob{job: models.ScheduledJob{ID: "a", ScheduledTime: when}, handle: &stubHandle{}})

		snap := s.Snapshot()
		require.Len(t, snap, 1)
		snap[0].To = "mutated@x.com"

		got, _ := s.Get("a")
		assert.Empty(t, got.job.To)
	})

	t.Run("drain empties the store", func(t *testing.T) {
		t.Parallel()

		s := NewStore()
		s.Insert(&pendingJob{job: models.ScheduledJob{ID: "a"}, handle: &stubHandle{}})
		s.Insert(&pendingJob{job: models.ScheduledJob{ID: "b"}, handle: &stubHandle{}})

		assert.Len(t, s.drain(), 2)
		assert.Zero(t, s.Len())
	})
}

func TestHistory(t *testing.T) {
	t.Parallel()

	h := NewHistory()
	assert.NotNil(t, h.Snapshot(), "empty history serializes as []")

	h.Append(models.HistoryEntry{ID: "1", Status: models.StatusSent})
	h.Append(models.HistoryEntry{ID: "2", Status: models.StatusFailed, Error: "boom"})

	snap := h.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "1", snap[0].ID)
	assert.Equal(t, "2", snap[1].ID)

	snap[0].ID = "changed"
	assert.Equal(t, "1", h.Snapshot()[0].ID)
	assert.True(t, h.Has("2"))
	assert.False(t, h.Has("3"))
	assert.Equal(t, 2, h.Len())
}
