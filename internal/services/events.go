package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/landreg/apiserver/internal/mq"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher sends a payload to a named channel. *mq.MQ satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// EventPublisher emits domain events after state changes have committed.
// Failures are logged and never reported to the caller. A nil
// *EventPublisher or a nil Publisher drops events.
type EventPublisher struct {
	pub Publisher
	log *zap.Logger
	now func() time.Time
}

func NewEventPublisher(pub Publisher, log *zap.Logger) *EventPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventPublisher{pub: pub, log: log, now: time.Now}
}

// Publish sends event on the channel named by its type.
func (p *EventPublisher) Publish(ctx context.Context, event types.Event) {
	if p == nil || p.pub == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	// The request may finish before the broker answers.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	attrs := map[string]string{
		"type":             event.Type,
		mq.OrderingKeyAttr: strconv.FormatInt(event.LandID, 10),
	}
	id, err := p.pub.Publish(ctx, event.Type, data, attrs)
	if err != nil {
		p.log.Warn("publish event failed",
			zap.String("type", event.Type),
			zap.Int64("land_id", event.LandID),
			zap.Error(err),
		)
		return
	}
	p.log.Debug("event published", zap.String("type", event.Type), zap.String("message_id", id))
}
