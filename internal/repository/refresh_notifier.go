package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
)

// EventPublisher is the subset of the Kafka producer the notifier needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaRefreshNotifier publishes RefreshEvents keyed by indicator name.
type KafkaRefreshNotifier struct {
	publisher EventPublisher
	topic     string
	now       func() time.Time
}

func NewKafkaRefreshNotifier(p EventPublisher, topic string) *KafkaRefreshNotifier {
	return &KafkaRefreshNotifier{publisher: p, topic: topic, now: time.Now}
}

var _ domrepo.RefreshNotifier = (*KafkaRefreshNotifier)(nil)

func (n *KafkaRefreshNotifier) NotifyRefresh(ctx context.Context, indicator string) error {
	ev := models.RefreshEvent{
		ID:         uuid.NewString(),
		Indicator:  indicator,
		OccurredAt: n.now().UTC(),
	}
	return n.publisher.Publish(ctx, n.topic, []byte(indicator), ev)
}
