package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SendLater/internal/models"
	"SendLater/internal/timer"
)

// gatedTransport blocks every Send until gate is closed.
type gatedTransport struct {
	gate chan struct{}

	mu   sync.Mutex
	sent []string
}

func (g *gatedTransport) Send(_ context.Context, to, _, _ string) error {
	<-g.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, to)
	return nil
}

func claimed(s *Scheduler, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.jobs.Get(id)
	return ok && p.firing
}

func scheduleNow(t *testing.T, s *Scheduler, to string) string {
	t.Helper()
	now := time.Now()
	id, err := s.DispatchLater(models.DispatchRequest{To: to, Subject: "Hi", Body: "<p>hi</p>", ScheduledTime: &now})
	require.NoError(t, err)
	return id
}

func TestShutdownDeliversClaimedJobs(t *testing.T) {
	t.Parallel()

	tr := &gatedTransport{gate: make(chan struct{})}
	s := New(tr, timer.NewAfterFunc(), WithWorkers(1))
	s.Start(context.Background())

	// One job occupies the only worker, the other waits in the queue.
	first := scheduleNow(t, s, "a@x.com")
	second := scheduleNow(t, s, "b@x.com")
	require.Eventually(t, func() bool {
		return claimed(s, first) && claimed(s, second)
	}, 2*time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.Shutdown()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Shutdown returned before claimed jobs were delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(tr.gate)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	assert.Len(t, s.ListHistory(), 2)
	assert.True(t, s.history.Has(first))
	assert.True(t, s.history.Has(second))
	assert.Empty(t, s.ListPending())
}

func TestStartContextCancelShutsDown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	tr := &gatedTransport{gate: make(chan struct{})}
	s := New(tr, timer.NewAfterFunc())
	s.Start(ctx)

	id := scheduleNow(t, s, "a@x.com")
	require.Eventually(t, func() bool { return claimed(s, id) }, 2*time.Second, 5*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.closed
	}, 2*time.Second, 5*time.Millisecond)

	now := time.Now()
	_, err := s.DispatchLater(models.DispatchRequest{To: "b@x.com", Subject: "Hi", Body: "<p>hi</p>", ScheduledTime: &now})
	assert.ErrorIs(t, err, ErrShuttingDown)

	close(tr.gate)
	s.Shutdown()

	history := s.ListHistory()
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
	assert.Equal(t, models.StatusSent, history[0].Status)
	assert.Empty(t, s.ListPending())
}

func TestShutdownWithoutStartDeliversClaimedJobs(t *testing.T) {
	t.Parallel()

	tr := &gatedTransport{gate: make(chan struct{})}
	close(tr.gate)
	s := New(tr, timer.NewAfterFunc())

	id := scheduleNow(t, s, "a@x.com")
	require.Eventually(t, func() bool { return claimed(s, id) }, 2*time.Second, 5*time.Millisecond)

	s.Shutdown()

	assert.True(t, s.history.Has(id))
	assert.Empty(t, s.ListPending())
}
