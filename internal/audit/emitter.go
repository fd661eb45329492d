package audit

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"go.uber.org/zap"
)

const Queue = "audit.events"

const (
	EventMessageSubmitted = "message.submitted"
	EventMessageSent      = "message.sent"
	EventMessageApproved  = "message.approved"
	EventMessageRejected  = "message.rejected"
	EventMessageCancelled = "message.cancelled"
	EventMessageSettled   = "message.settled"
	EventCreditsPurchased = "credits.purchased"
)

type Event struct {
	Kind      string    `json:"kind"`
	AccountID string    `json:"account_id"`
	MessageID int64     `json:"message_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Emitter writes audit events to a fire-and-forget sink. Failures are logged
// and swallowed; the dispatch transaction never rolls back on audit trouble.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

type queueEmitter struct {
	publisher mq.Publisher
	logger    *zap.Logger
}

func NewQueueEmitter(publisher mq.Publisher, logger *zap.Logger) Emitter {
	return &queueEmitter{publisher: publisher, logger: logger}
}

func (e *queueEmitter) Emit(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	if err := e.publisher.PublishJSON(ctx, "", Queue, event); err != nil {
		e.logger.Warn("Failed to emit audit event",
			zap.String("kind", event.Kind),
			zap.String("accountID", event.AccountID),
			zap.Int64("messageID", event.MessageID),
			zap.Error(err))
	}
}

type nopEmitter struct{}

func NewNopEmitter() Emitter { return nopEmitter{} }

func (nopEmitter) Emit(context.Context, Event) {}
