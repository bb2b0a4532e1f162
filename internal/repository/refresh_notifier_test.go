package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskPulse/internal/domain/models"
)

type recordingPublisher struct {
	topic string
	key   []byte
	value interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func TestKafkaRefreshNotifier(t *testing.T) {
	p := &recordingPublisher{}
	n := NewKafkaRefreshNotifier(p, "riskpulse.refresh")
	n.now = func() time.Time { return time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC) }

	require.NoError(t, n.NotifyRefresh(context.Background(), "spx-putcall"))

	assert.Equal(t, "riskpulse.refresh", p.topic)
	assert.Equal(t, []byte("spx-putcall"), p.key)
	ev, ok := p.value.(models.RefreshEvent)
	require.True(t, ok)
	assert.Equal(t, "spx-putcall", ev.Indicator)
	assert.Equal(t, time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC), ev.OccurredAt)
	_, err := uuid.Parse(ev.ID)
	assert.NoError(t, err)
}
