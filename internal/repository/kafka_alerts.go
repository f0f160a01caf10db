package repository

import (
	"context"

	"PanelPulse/internal/domain/models"
	"PanelPulse/internal/domain/repository"
	pkgkafka "PanelPulse/pkg/kafka"
)

// KafkaAlertSink publishes opportunities to the alerts topic, keyed by
// entity id so one entity's alerts stay in order on a partition.
type KafkaAlertSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertSink creates a Kafka alert sink.
func NewKafkaAlertSink(producer *pkgkafka.Producer, topic string) repository.AlertSink {
	return &KafkaAlertSink{producer: producer, topic: topic}
}

func (s *KafkaAlertSink) Publish(ctx context.Context, o *models.Opportunity) error {
	return s.producer.Publish(ctx, s.topic, []byte(o.EntityID), alertPayload(o))
}

func (s *KafkaAlertSink) PublishBatch(ctx context.Context, ops []*models.Opportunity) error {
	if len(ops) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ops))
	for i, o := range ops {
		msgs[i] = pkgkafka.Message{Key: []byte(o.EntityID), Value: alertPayload(o)}
	}
	return s.producer.PublishBatch(ctx, s.topic, msgs)
}

func (s *KafkaAlertSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

func alertPayload(o *models.Opportunity) map[string]interface{} {
	return map[string]interface{}{
		"entity_id":      o.EntityID,
		"kind":           string(o.Kind),
		"score":          o.Score,
		"house":          o.House,
		"recommendation": o.Recommendation,
		"detected_at":    o.DetectedAt.Unix(),
	}
}

// FanoutAlertSink forwards each opportunity to every configured sink.
type FanoutAlertSink struct {
	sinks []repository.AlertSink
}

// NewFanoutAlertSink composes multiple alert sinks.
func NewFanoutAlertSink(sinks ...repository.AlertSink) repository.AlertSink {
	return &FanoutAlertSink{sinks: sinks}
}

func (f *FanoutAlertSink) Publish(ctx context.Context, o *models.Opportunity) error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, o); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FanoutAlertSink) PublishBatch(ctx context.Context, ops []*models.Opportunity) error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.PublishBatch(ctx, ops); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FanoutAlertSink) Close() error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
