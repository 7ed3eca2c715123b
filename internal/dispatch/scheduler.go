package dispatch

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SendLater/internal/events"
	"SendLater/internal/metrics"
	"SendLater/internal/models"
	"SendLater/internal/timer"
	"SendLater/internal/worker"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 100
	publishTimeout   = 2 * time.Second
	maxIDAttempts    = 3
)

// Transport performs a single delivery attempt.
type Transport interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Scheduler is the dispatch orchestrator. It owns the job store and the
// history log; create one per process and inject it where needed.
type Scheduler struct {
	transport Transport
	timers    timer.Facility
	pub       events.Publisher
	log       *zap.Logger
	now       func() time.Time
	newID     func() string

	workers   int
	queueSize int

	mu      sync.Mutex
	jobs    *Store
	history *History
	started bool
	closed  bool

	fired  chan models.ScheduledJob
	sends  sync.WaitGroup
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	publishWarn rate.Sometimes
}

func New(transport Transport, timers timer.Facility, opts ...Option) *Scheduler {
	s := &Scheduler{
		transport:   transport,
		timers:      timers,
		pub:         events.Nop{},
		log:         zap.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
		workers:     defaultWorkers,
		queueSize:   defaultQueueSize,
		jobs:        NewStore(),
		history:     NewHistory(),
		publishWarn: rate.Sometimes{Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fired = make(chan models.ScheduledJob, s.queueSize)
	return s
}

// Start launches the delivery workers. Jobs whose timers fire before Start
// wait in the queue. Cancelling ctx shuts the scheduler down; the workers
// themselves outlive ctx until every claimed job is delivered.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.startPool(ctx)
	context.AfterFunc(ctx, s.Shutdown)

	s.log.Info("dispatch scheduler started", zap.Int("workers", s.workers))
}

// startPool must be called with s.mu held.
func (s *Scheduler) startPool(ctx context.Context) {
	s.started = true

	ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	worker.StartPool(ctx, &s.wg, s.workers, s.fired, s.execute, s.log)
}

// Shutdown disarms every pending timer and refuses new jobs. Jobs already
// claimed by their timer are delivered and recorded before it returns;
// the remaining pending jobs are dropped. Concurrent callers all wait for
// the first one to finish.
func (s *Scheduler) Shutdown() {
	s.once.Do(s.shutdown)
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	s.closed = true
	for _, p := range s.jobs.jobs {
		if !p.firing {
			p.handle.Stop()
		}
	}
	if !s.started {
		s.startPool(context.Background())
	}
	s.mu.Unlock()

	// No claim can start once closed is set; wait for the ones in flight
	// to reach the queue, then let the workers drain it.
	s.sends.Wait()
	close(s.fired)
	s.wg.Wait()
	s.cancel()

	s.mu.Lock()
	dropped := s.jobs.drain()
	s.mu.Unlock()
	metrics.EmailsPending.Set(0)

	s.log.Info("dispatch scheduler stopped", zap.Int("dropped_jobs", len(dropped)))
}

// DispatchNow delivers req synchronously and records the outcome.
// A transport failure is recorded and returned wrapped in ErrTransport.
func (s *Scheduler) DispatchNow(ctx context.Context, req models.DispatchRequest) (models.HistoryEntry, error) {
	err := s.transport.Send(ctx, req.To, req.Subject, req.Body)

	entry := s.newEntry(s.newID(), req.To, req.Subject, req.Body, nil, err)

	s.mu.Lock()
	s.history.Append(entry)
	s.mu.Unlock()

	s.observe(entry)

	if err != nil {
		return entry, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return entry, nil
}

// DispatchLater registers req for delivery at req.ScheduledTime and
// returns the job id without waiting. Past deadlines fire as soon as
// possible, never inside this call.
func (s *Scheduler) DispatchLater(req models.DispatchRequest) (string, error) {
	if req.ScheduledTime == nil || req.ScheduledTime.IsZero() {
		return "", fmt.Errorf("%w: scheduled time is required", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrShuttingDown
	}

	job := models.ScheduledJob{
		To:            req.To,
		Subject:       req.Subject,
		Body:          req.Body,
		ScheduledTime: *req.ScheduledTime,
		CreatedAt:     s.now(),
	}

	if err := s.register(&job); err != nil {
		return "", err
	}
	metrics.EmailsPending.Set(float64(s.jobs.Len()))

	s.log.Info("email scheduled",
		zap.String("job_id", job.ID),
		zap.String("to", job.To),
		zap.Time("scheduled_time", job.ScheduledTime),
	)

	return job.ID, nil
}

// register assigns job a fresh id, arms its timer and stores it.
// It must be called with s.mu held; the timer callback needs s.mu, so it
// cannot observe the job before it is stored.
func (s *Scheduler) register(job *models.ScheduledJob) error {
	for range maxIDAttempts {
		id := s.newID()
		if s.history.Has(id) {
			continue
		}

		h, err := s.timers.Schedule(job.ScheduledTime, func() { s.fire(id) })
		if err != nil {
			return fmt.Errorf("schedule timer: %w", err)
		}

		job.ID = id
		if s.jobs.Insert(&pendingJob{job: *job, handle: h}) {
			return nil
		}
		h.Stop()
	}
	job.ID = ""
	return ErrDuplicateJob
}

// Cancel disarms a pending job. It returns false if id is unknown or the
// job has already fired.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	p, ok := s.jobs.Get(id)
	if !ok || p.firing {
		s.mu.Unlock()
		return false
	}
	p.handle.Stop()
	s.jobs.Remove(id)
	pending := s.jobs.Len()
	s.mu.Unlock()

	metrics.EmailsPending.Set(float64(pending))
	metrics.EmailsCancelled.Inc()
	s.log.Info("scheduled email cancelled", zap.String("job_id", id))

	return true
}

// ListPending returns the pending jobs ordered by scheduled time.
func (s *Scheduler) ListPending() []models.ScheduledJob {
	s.mu.Lock()
	jobs := s.jobs.Snapshot()
	s.mu.Unlock()

	slices.SortFunc(jobs, func(a, b models.ScheduledJob) int {
		return a.ScheduledTime.Compare(b.ScheduledTime)
	})
	return jobs
}

// ListHistory returns every outcome in completion order.
func (s *Scheduler) ListHistory() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Snapshot()
}

// fire claims the job for delivery. Once claimed, Cancel loses.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	p, ok := s.jobs.Get(id)
	if !ok || p.firing || s.closed {
		s.mu.Unlock()
		return
	}
	p.firing = true
	job := p.job
	s.sends.Add(1)
	s.mu.Unlock()

	defer s.sends.Done()
	s.fired <- job
}

func (s *Scheduler) execute(ctx context.Context, job models.ScheduledJob) {
	// Delivery of a claimed job completes even during shutdown.
	err := s.transport.Send(context.WithoutCancel(ctx), job.To, job.Subject, job.Body)

	scheduledFor := job.ScheduledTime
	entry := s.newEntry(job.ID, job.To, job.Subject, job.Body, &scheduledFor, err)

	s.mu.Lock()
	s.history.Append(entry)
	s.jobs.Remove(job.ID)
	pending := s.jobs.Len()
	s.mu.Unlock()

	metrics.EmailsPending.Set(float64(pending))
	s.observe(entry)
}

func (s *Scheduler) newEntry(id, to, subject, body string, scheduledFor *time.Time, err error) models.HistoryEntry {
	entry := models.HistoryEntry{
		ID:           id,
		To:           to,
		Subject:      subject,
		Body:         body,
		ScheduledFor: scheduledFor,
		CompletedAt:  s.now(),
		Status:       models.StatusSent,
	}
	if err != nil {
		entry.Status = models.StatusFailed
		entry.Error = err.Error()
	}
	return entry
}

// observe logs, counts and publishes a terminal outcome.
func (s *Scheduler) observe(entry models.HistoryEntry) {
	fields := []zap.Field{
		zap.String("id", entry.ID),
		zap.String("to", entry.To),
		zap.Bool("scheduled", entry.ScheduledFor != nil),
	}

	if entry.Status == models.StatusFailed {
		s.log.Error("email send failed", append(fields, zap.String("error", entry.Error))...)
		metrics.Record(false)
	} else {
		s.log.Info("email sent successfully", fields...)
		metrics.Record(true)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.pub.Publish(ctx, entry); err != nil {
		s.publishWarn.Do(func() {
			s.log.Warn("history event publish failed", zap.String("id", entry.ID), zap.Error(err))
		})
	}
}
