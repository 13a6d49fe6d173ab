package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"regcorpus/internal/config"
	"regcorpus/internal/correlation"
	"regcorpus/internal/events"
	"regcorpus/internal/worker"
)

type MockTransformer struct {
	mock.Mock
}

func (m *MockTransformer) TransformSources(ctx context.Context, ids []string, batch string) error {
	args := m.Called(ctx, ids, batch)
	return args.Error(0)
}

func message(t *testing.T, ev events.Event) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(ev)
	assert.NoError(t, err)
	return &nsq.Message{Body: body}
}

func TestRawChangedConsumer_TransformsSource(t *testing.T) {
	tr := new(MockTransformer)
	consumer := worker.NewRawChangedConsumer(tr, nil)

	tr.On("TransformSources", mock.MatchedBy(func(ctx context.Context) bool {
		return correlation.RunID(ctx) == "run-7"
	}), []string{"mva-loven"}, "source_mva-loven").Return(nil)

	err := consumer.HandleMessage(message(t, events.Event{
		Type:     config.TopicRawChanged,
		RunID:    "run-7",
		SourceID: "mva-loven",
	}))
	assert.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestRawChangedConsumer_RequeuesOnFailure(t *testing.T) {
	tr := new(MockTransformer)
	consumer := worker.NewRawChangedConsumer(tr, nil)
	tr.On("TransformSources", mock.Anything, []string{"a"}, "source_a").Return(errors.New("no parser"))

	err := consumer.HandleMessage(message(t, events.Event{Type: config.TopicRawChanged, SourceID: "a"}))
	assert.Error(t, err)
}

func TestRawChangedConsumer_DropsUnusableMessages(t *testing.T) {
	tr := new(MockTransformer)
	consumer := worker.NewRawChangedConsumer(tr, nil)

	assert.NoError(t, consumer.HandleMessage(&nsq.Message{}))
	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: []byte("invalid json")}))
	assert.NoError(t, consumer.HandleMessage(message(t, events.Event{Type: config.TopicRawChanged})))
	assert.NoError(t, consumer.HandleMessage(message(t, events.Event{Type: config.TopicCorpusExported, SourceID: "x"})))

	tr.AssertNotCalled(t, "TransformSources", mock.Anything, mock.Anything, mock.Anything)
}
