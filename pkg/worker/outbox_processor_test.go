package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/memory"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/messaging"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *mockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	return nil, args.Error(1)
}

func (m *mockBroker) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

func testConfig(attempts int) OutboxProcessorConfig {
	return OutboxProcessorConfig{
		Channel:       "hospital.events",
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: attempts,
		RetryDelay:    time.Hour,
	}
}

func seedEvent(t *testing.T, store interface {
	Create(context.Context, *model.OutboxEvent) error
}) *model.OutboxEvent {
	t.Helper()
	evt := &model.OutboxEvent{EventType: model.EventAppointmentBooked, Payload: []byte(`{"time_slot":"09:00-09:30"}`)}
	require.NoError(t, store.Create(context.Background(), evt))
	return evt
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	evt := seedEvent(t, store.Outbox)

	broker := &mockBroker{}
	broker.On("Publish", mock.Anything, "hospital.events", mock.MatchedBy(func(msg messaging.Message) bool {
		return msg.ID == evt.ID.String() && msg.Type == model.EventAppointmentBooked
	})).Return(nil).Once()

	p, err := NewOutboxProcessor(store.Outbox, broker, testConfig(3), logger.Nop(), metrics.NewNop())
	require.NoError(t, err)

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	broker.AssertExpectations(t)

	pending, err := store.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	purged, err := store.Outbox.DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestProcessBatchDefersRetry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(t, store.Outbox)

	broker := &mockBroker{}
	broker.On("Publish", mock.Anything, "hospital.events", mock.Anything).Return(errors.New("redis down")).Once()

	p, err := NewOutboxProcessor(store.Outbox, broker, testConfig(3), logger.Nop(), metrics.NewNop())
	require.NoError(t, err)

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Retry is an hour out, so the next batch is empty and nothing is published.
	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	broker.AssertNumberOfCalls(t, "Publish", 1)
}

func TestProcessBatchGivesUp(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(t, store.Outbox)

	broker := &mockBroker{}
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	p, err := NewOutboxProcessor(store.Outbox, broker, testConfig(1), logger.Nop(), metrics.NewNop())
	require.NoError(t, err)

	_, err = p.ProcessBatch(ctx)
	require.NoError(t, err)

	pending, err := store.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	purged, err := store.Outbox.DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, purged, "failed events are kept for inspection")
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	cfg := testConfig(3)
	cfg.BatchSize = 0
	_, err := NewOutboxProcessor(memory.NewStore().Outbox, &mockBroker{}, cfg, logger.Nop(), metrics.NewNop())
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 0))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 2))
	assert.Equal(t, 1024*time.Second, backoff(time.Second, 50))
}

func TestRetentionCleanup(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	evt := seedEvent(t, store.Outbox)
	require.NoError(t, store.Outbox.MarkProcessed(ctx, evt.ID))

	w := NewOutboxRetention(store.Outbox, time.Hour, logger.Nop(), metrics.NewNop())

	n, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
