package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"regcorpus/internal/config"
	"regcorpus/internal/correlation"
	"regcorpus/internal/events"
)

// Transformer turns staged raw payloads into a structured batch.
type Transformer interface {
	TransformSources(ctx context.Context, ids []string, batch string) error
}

// RawChangedConsumer transforms each source announced on the raw-changed
// topic, so structured batches follow ingestion without a manual process run.
type RawChangedConsumer struct {
	transformer Transformer
	logger      *slog.Logger
}

func NewRawChangedConsumer(t Transformer, logger *slog.Logger) *RawChangedConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RawChangedConsumer{transformer: t, logger: logger}
}

// HandleMessage returns an error to have NSQ requeue the message.
func (h *RawChangedConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var ev events.Event
	if err := json.Unmarshal(m.Body, &ev); err != nil {
		// Malformed payloads never succeed; drop them.
		h.logger.Error("invalid raw-changed message", "error", err)
		return nil
	}
	if ev.Type != "" && ev.Type != config.TopicRawChanged {
		h.logger.Warn("ignoring unexpected event type", "type", ev.Type, "id", ev.ID)
		return nil
	}
	if ev.SourceID == "" {
		h.logger.Warn("raw-changed event without source_id", "id", ev.ID)
		return nil
	}

	runID := ev.RunID
	if runID == "" || runID == "unknown" {
		runID = correlation.NewRunID()
	}
	ctx := correlation.WithRunID(context.Background(), runID)

	h.logger.InfoContext(ctx, "transforming changed source", "source_id", ev.SourceID, "content_hash", ev.ContentHash)
	if err := h.transformer.TransformSources(ctx, []string{ev.SourceID}, BatchName(ev.SourceID)); err != nil {
		h.logger.ErrorContext(ctx, "transform failed", "source_id", ev.SourceID, "error", err)
		return err
	}
	return nil
}

// BatchName is the structured batch a watched source is written to.
func BatchName(sourceID string) string {
	return "source_" + sourceID
}

// Consume subscribes h to the raw-changed topic on nsqd and blocks until ctx
// is cancelled.
func Consume(ctx context.Context, nsqdAddr, channel string, h nsq.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	consumer, err := nsq.NewConsumer(config.TopicRawChanged, channel, nsq.NewConfig())
	if err != nil {
		return fmt.Errorf("nsq consumer error: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelWarning)
	consumer.AddHandler(h)

	if err := consumer.ConnectToNSQD(nsqdAddr); err != nil {
		consumer.Stop()
		return fmt.Errorf("connect to nsqd: %w", err)
	}
	logger.InfoContext(ctx, "consuming raw-changed events", "nsqd", nsqdAddr, "channel", channel)

	<-ctx.Done()
	consumer.Stop()
	<-consumer.StopChan
	return nil
}
