package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "RiskPulse/pkg/logger"
)

// ConsumerHook wraps message handling. A BeforeHandle error skips the
// handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message) (context.Context, []byte, error)
	AfterHandle(ctx context.Context, topic string, data []byte, err error)
}

// NoopHook passes the payload through untouched.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message) (context.Context, []byte, error) {
	return ctx, km.Value, nil
}

func (NoopHook) AfterHandle(context.Context, string, []byte, error) {}

type ctxKey string

const (
	CtxStartTime ctxKey = "kafka_hook_start_time"
	CtxTraceID   ctxKey = "kafka_hook_trace_id"
)

// ExtractTraceID returns the trace_id header, if any.
func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "trace_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// LoggingHook logs failed handling attempts with their trace id and latency.
type LoggingHook struct {
	Log *applogger.Logger
}

func (h LoggingHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message) (context.Context, []byte, error) {
	ctx = context.WithValue(ctx, CtxStartTime, time.Now())
	if id := ExtractTraceID(km); id != "" {
		ctx = context.WithValue(ctx, CtxTraceID, id)
	}
	return ctx, km.Value, nil
}

func (h LoggingHook) AfterHandle(ctx context.Context, topic string, data []byte, err error) {
	if err == nil || h.Log == nil {
		return
	}
	fields := []applogger.Field{
		applogger.String("topic", topic),
		applogger.Int("bytes", len(data)),
		applogger.Error(err),
	}
	if start, ok := ctx.Value(CtxStartTime).(time.Time); ok {
		fields = append(fields, applogger.Duration("latency", time.Since(start)))
	}
	if id, ok := ctx.Value(CtxTraceID).(string); ok {
		fields = append(fields, applogger.String("trace_id", id))
	}
	h.Log.Warn("kafka handler attempt failed", fields...)
}
