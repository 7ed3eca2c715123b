package dispatch

import "SendLater/internal/models"

// History is the append-only log of dispatch outcomes in completion order.
// It has no capacity bound. Not safe for concurrent use; Scheduler
// serializes access.
type History struct {
	entries []models.HistoryEntry
	ids     map[string]struct{}
}

func NewHistory() *History {
	return &History{ids: make(map[string]struct{})}
}

func (h *History) Append(e models.HistoryEntry) {
	h.entries = append(h.entries, e)
	h.ids[e.ID] = struct{}{}
}

func (h *History) Has(id string) bool {
	_, ok := h.ids[id]
	return ok
}

func (h *History) Len() int {
	return len(h.entries)
}

// Snapshot returns a copy of the log in append order.
func (h *History) Snapshot() []models.HistoryEntry {
	return append(make([]models.HistoryEntry, 0, len(h.entries)), h.entries...)
}
