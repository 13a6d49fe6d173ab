package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"regcorpus/internal/config"
	"regcorpus/internal/correlation"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func TestEmitter_Emit(t *testing.T) {
	pub := new(MockPublisher)
	var captured []byte
	pub.On("Publish", config.TopicRawChanged, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).([]byte) }).
		Return(nil)

	ctx := correlation.WithRunID(context.Background(), "run-42")
	ev := NewEvent(ctx, config.TopicRawChanged)
	ev.SourceID = "mva-loven"
	ev.ContentHash = "abc"

	NewEmitter(pub, nil).Emit(ctx, ev)
	pub.AssertExpectations(t)

	var got Event
	require.NoError(t, json.Unmarshal(captured, &got))
	assert.Equal(t, "run-42", got.RunID)
	assert.Equal(t, "mva-loven", got.SourceID)
	assert.NotEmpty(t, got.ID)
}

func TestEmitter_PublishFailureIsSwallowed(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nsqd down"))

	assert.NotPanics(t, func() {
		NewEmitter(pub, nil).Emit(context.Background(), NewEvent(context.Background(), config.TopicBatchWritten))
	})
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish("any", nil))
}

func TestNewNSQPublisher_DoesNotConnectEagerly(t *testing.T) {
	p, err := NewNSQPublisher("localhost:4150")
	require.NoError(t, err)
	p.Stop()
}
