package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexgladd/llmsvc/internal/cache"
)

// Message types understood by the emailer.
const (
	TypeNewAdmin = "new-admin"
	TypeNewUser  = "new-user"
	TypeNewKey   = "new-key"
)

// Message is a queued notification. Password is only set for new-admin
// messages; APIKey and ExpiresAt only for new-user and new-key.
type Message struct {
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	APIKey    string    `json:"apiKey,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Sender enqueues notifications for delivery. Implementations must not
// block on the actual delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// QueueSender enqueues notifications onto a Redis list for the emailer
// worker to drain.
type QueueSender struct {
	cache    cache.Cache
	queueKey string
}

func NewQueueSender(ca cache.Cache, queueKey string) *QueueSender {
	return &QueueSender{cache: ca, queueKey: queueKey}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.cache.PushQueue(ctx, s.queueKey, payload); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// NopSender discards notifications. Used when email delivery is disabled.
type NopSender struct{}

func (NopSender) Send(_ context.Context, _ Message) error { return nil }

var _ Sender = (*QueueSender)(nil)
var _ Sender = NopSender{}
