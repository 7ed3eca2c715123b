package dispatch

import (
	"time"

	"go.uber.org/zap"

	"SendLater/internal/events"
)

type Option func(*Scheduler)

func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithWorkers sets how many fired jobs may be delivered concurrently.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithQueueSize bounds fired jobs waiting for a free worker.
func WithQueueSize(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.queueSize = n
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Scheduler) {
		if p != nil {
			s.pub = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Scheduler) {
		if newID != nil {
			s.newID = newID
		}
	}
}
