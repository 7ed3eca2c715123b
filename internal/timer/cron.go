package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cron is a Facility that registers every deadline as a one-shot entry
// on a shared cron runner. Start must be called before entries can fire.
type Cron struct {
	c *cron.Cron
}

func NewCron(log *zap.Logger) *Cron {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log: log.Sugar()}
	return &Cron{
		c: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
	}
}

func (t *Cron) Start() {
	t.c.Start()
}

// Stop halts the runner and waits for running callbacks or ctx, whichever
// comes first.
func (t *Cron) Stop(ctx context.Context) error {
	select {
	case <-t.c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Cron) Schedule(at time.Time, fn func()) (Handle, error) {
	h := &cronHandle{c: t.c}

	// Hold the handle lock until the entry id is known so an early fire
	// cannot observe a zero id.
	h.mu.Lock()
	h.id = t.c.Schedule(&oneShot{at: at}, cron.FuncJob(func() {
		if h.claim() {
			fn()
		}
	}))
	h.mu.Unlock()

	return h, nil
}

// Len returns the number of registered entries, fired ones excluded.
func (t *Cron) Len() int {
	return len(t.c.Entries())
}

type cronHandle struct {
	c *cron.Cron

	mu   sync.Mutex
	id   cron.EntryID
	done bool
}

func (h *cronHandle) claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	h.c.Remove(h.id)
	return true
}

func (h *cronHandle) Stop() bool {
	return h.claim()
}

// oneShot is a cron.Schedule that yields its deadline once and then
// the zero time, which cron treats as "never".
type oneShot struct {
	at     time.Time
	issued atomic.Bool
}

func (s *oneShot) Next(time.Time) time.Time {
	if s.issued.Swap(true) {
		return time.Time{}
	}
	return s.at
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
