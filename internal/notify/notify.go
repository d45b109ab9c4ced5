// Package notify fans order-status changes out to live client
// subscriptions. The status machine only sees the Notifier interface; a
// no-op implementation serves environments without subscribers.
package notify

import (
	"context"
	"time"
)

// StatusEvent mirrors the payload a subscribed client receives when an
// order's status changes.
type StatusEvent struct {
	UserID      string    `json:"user_id"`
	DraftID     string    `json:"order_draft_id"`
	OrderNumber string    `json:"order_id,omitempty"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

type Notifier interface {
	PublishStatus(ctx context.Context, event StatusEvent) error
}

type Noop struct{}

func (Noop) PublishStatus(context.Context, StatusEvent) error { return nil }
