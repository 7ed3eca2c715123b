package dispatch

import (
	"SendLater/internal/models"
	"SendLater/internal/timer"
)

// pendingJob is a Store entry. The handle is owned by the entry and is
// only used to cancel the timer.
type pendingJob struct {
	job    models.ScheduledJob
	handle timer.Handle

	// firing is set once the timer callback has claimed the job.
	// From then on the job can no longer be cancelled.
	firing bool
}

// Store is the in-memory job store keyed by job id.
// It is not safe for concurrent use; Scheduler serializes access.
type Store struct {
	jobs map[string]*pendingJob
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*pendingJob)}
}

// Insert adds p under its job id. It refuses duplicates and reports
// whether the entry was stored.
func (s *Store) Insert(p *pendingJob) bool {
	if _, ok := s.jobs[p.job.ID]; ok {
		return false
	}
	s.jobs[p.job.ID] = p
	return true
}

func (s *Store) Get(id string) (*pendingJob, bool) {
	p, ok := s.jobs[id]
	return p, ok
}

func (s *Store) Has(id string) bool {
	_, ok := s.jobs[id]
	return ok
}

// Remove deletes id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	delete(s.jobs, id)
}

func (s *Store) Len() int {
	return len(s.jobs)
}

// Snapshot copies the public view of every entry. Order is unspecified.
func (s *Store) Snapshot() []models.ScheduledJob {
	out := make([]models.ScheduledJob, 0, len(s.jobs))
	for _, p := range s.jobs {
		out = append(out, p.job)
	}
	return out
}

// drain removes and returns every entry.
func (s *Store) drain() []*pendingJob {
	out := make([]*pendingJob, 0, len(s.jobs))
	for id, p := range s.jobs {
		out = append(out, p)
		delete(s.jobs, id)
	}
	return out
}
