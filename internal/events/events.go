// Package events publishes dispatch outcomes to live subscribers.
// Delivery is best effort: nothing is stored and missed events are gone.
package events

import (
	"context"

	"SendLater/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, entry models.HistoryEntry) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, models.HistoryEntry) error { return nil }
func (Nop) Close() error                                       { return nil }
