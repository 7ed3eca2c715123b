package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"SendLater/internal/models"
	"SendLater/internal/timer"
)

// manualTimers is a timer.Facility driven by Advance. Due callbacks run
// on their own goroutines, like real timers.
type manualTimers struct {
	mu      sync.Mutex
	now     time.Time
	handles []*manualHandle
}

func newManualTimers() *manualTimers {
	return &manualTimers{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *manualTimers) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTimers) Schedule(at time.Time, fn func()) (timer.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := &manualHandle{m: m, at: at, fn: fn}
	m.handles = append(m.handles, h)
	return h, nil
}

func (m *manualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	var due []func()
	for _, h := range m.handles {
		if h.done || h.at.After(m.now) {
			continue
		}
		h.done = true
		due = append(due, h.fn)
	}
	m.mu.Unlock()

	for _, fn := range due {
		go fn()
	}
}

func (m *manualTimers) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, h := range m.handles {
		if !h.done {
			n++
		}
	}
	return n
}

type manualHandle struct {
	m    *manualTimers
	at   time.Time
	fn   func()
	done bool
}

func (h *manualHandle) Stop() bool {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	return true
}

type sentMail struct {
	To, Subject, HTML string
}

// fakeTransport records deliveries and fails with err when set.
// When gate is non-nil every Send blocks until it is closed.
type fakeTransport struct {
	mu   sync.Mutex
	err  error
	gate chan struct{}
	sent []sentMail
}

func (f *fakeTransport) Send(ctx context.Context, to, subject, html string) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, HTML: html})
	return f.err
}

func (f *fakeTransport) Sent() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.HistoryEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

var errSMTPTimeout = errors.New("SMTP timeout")

func request(to string, at *time.Time) models.DispatchRequest {
	return models.DispatchRequest{
		To:            to,
		Subject:       "Hi",
		Body:          "<p>hi</p>",
		ScheduledTime: at,
	}
}

func at(t time.Time) *time.Time { return &t }
