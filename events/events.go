// Package events publishes order lifecycle notifications for downstream
// consumers (mailers, dashboards). Publishing never blocks an order write:
// callers log failures and move on.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderCancelled     = "order.cancelled"
	TypePaymentSubmitted   = "payment.submitted"
	TypePaymentVerified    = "payment.verified"
	TypePaymentRejected    = "payment.rejected"
)

type Event struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	OrderID     string                 `json:"order_id"`
	OrderNumber string                 `json:"order_number,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

func New(eventType string, orderID, userID primitive.ObjectID, data map[string]interface{}) Event {
	e := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID.Hex(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if !userID.IsZero() {
		e.UserID = userID.Hex()
	}
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the application log. Used when no broker
// is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	log.WithFields(log.Fields{
		"event_id":   e.ID,
		"event_type": e.Type,
		"order_id":   e.OrderID,
		"user_id":    e.UserID,
	}).Info("order event")
	return nil
}

func (LogPublisher) Close() error { return nil }
