// Package timer provides one-shot deadline timers behind a small interface
// so the dispatch scheduler does not depend on a specific timer primitive.
package timer

import "time"

// Handle cancels a scheduled callback.
// Stop reports whether the call prevented the callback from running;
// it returns false if the callback already started or was stopped.
type Handle interface {
	Stop() bool
}

// Facility runs fn once at (or as soon as possible after) at.
// fn never runs synchronously inside Schedule, even for past deadlines.
type Facility interface {
	Schedule(at time.Time, fn func()) (Handle, error)
}

// AfterFunc is a Facility backed by one runtime timer per deadline.
type AfterFunc struct{}

func NewAfterFunc() *AfterFunc {
	return &AfterFunc{}
}

func (AfterFunc) Schedule(at time.Time, fn func()) (Handle, error) {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	return time.AfterFunc(delay, fn), nil
}
