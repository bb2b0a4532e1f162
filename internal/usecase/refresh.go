package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	pkgkafka "RiskPulse/pkg/kafka"
	applogger "RiskPulse/pkg/logger"
)

// Invalidator drops cached results of one indicator.
type Invalidator interface {
	Invalidate(ctx context.Context, indicator string) error
}

// LocalInvalidator applies refresh notifications to the in-process cache
// directly. It stands in for Kafka when events are disabled.
type LocalInvalidator struct {
	target Invalidator
}

func NewLocalInvalidator(target Invalidator) *LocalInvalidator {
	return &LocalInvalidator{target: target}
}

var _ drepo.RefreshNotifier = (*LocalInvalidator)(nil)

func (l *LocalInvalidator) NotifyRefresh(ctx context.Context, indicator string) error {
	return invalidate(ctx, l.target, indicator)
}

// RefreshHandler consumes refresh events and invalidates the matching cache entries.
type RefreshHandler struct {
	topic  string
	target Invalidator
	log    *applogger.Logger
}

func NewRefreshHandler(topic string, target Invalidator, log *applogger.Logger) *RefreshHandler {
	if log == nil {
		log = applogger.NewNop()
	}
	return &RefreshHandler{topic: topic, target: target, log: log}
}

var _ pkgkafka.MessageHandler = (*RefreshHandler)(nil)

func (h *RefreshHandler) Topic() string { return h.topic }

func (h *RefreshHandler) Handle(ctx context.Context, data []byte) error {
	var ev models.RefreshEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		// a malformed event will never decode, so it is not retried
		h.log.Warn("dropping malformed refresh event", applogger.Error(err))
		return nil
	}
	if ev.Indicator == "" {
		return nil
	}
	if err := invalidate(ctx, h.target, ev.Indicator); err != nil {
		return fmt.Errorf("refresh %s: %w", ev.Indicator, err)
	}
	h.log.Debug("refresh event applied",
		applogger.String("event_id", ev.ID),
		applogger.String("indicator", ev.Indicator),
	)
	return nil
}

// invalidate ignores names that have no cached indicator behind them, such
// as the daily put/call table.
func invalidate(ctx context.Context, target Invalidator, indicator string) error {
	err := target.Invalidate(ctx, indicator)
	if errors.Is(err, models.ErrUnknownIndicator) {
		return nil
	}
	return err
}
