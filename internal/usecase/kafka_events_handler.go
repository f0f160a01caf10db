package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PanelPulse/internal/domain/models"
	domrepo "PanelPulse/internal/domain/repository"
	mid "PanelPulse/internal/middleware"
	pkgkafka "PanelPulse/pkg/kafka"
)

// KafkaEventsHandler consumes narrative events from a Kafka topic and feeds
// them through the intake.
type KafkaEventsHandler struct {
	topic   string
	intake  *mid.EventIntake
	metrics domrepo.Metrics
}

// NewKafkaEventsHandler creates a handler for the narrative events topic.
func NewKafkaEventsHandler(topic string, intake *mid.EventIntake, metrics domrepo.Metrics) *KafkaEventsHandler {
	return &KafkaEventsHandler{topic: topic, intake: intake, metrics: metrics}
}

func (h *KafkaEventsHandler) Topic() string { return h.topic }

// wire schema: {"id", "type", "occurred_at", and one payload object
// matching type: "story_beat" | "comic_issue" | "character_update" |
// "media_performance" | "timeline_transition"}
type eventEnvelope struct {
	ID         string                     `json:"id"`
	Type       string                     `json:"type"`
	OccurredAt int64                      `json:"occurred_at"` // unix seconds
	StoryBeat  *models.StoryBeat          `json:"story_beat,omitempty"`
	Comic      *models.ComicIssue         `json:"comic_issue,omitempty"`
	Character  *models.CharacterUpdate    `json:"character_update,omitempty"`
	Media      *models.MediaPerformance   `json:"media_performance,omitempty"`
	Transition *models.TimelineTransition `json:"timeline_transition,omitempty"`
}

// Handle decodes one message and submits it to the pipeline.
func (h *KafkaEventsHandler) Handle(ctx context.Context, b []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	occurred := time.Now()
	if env.OccurredAt > 0 {
		occurred = time.Unix(env.OccurredAt, 0)
		// E2E latency from event time to now (approx)
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(occurred).Seconds())
	}

	e := &models.NarrativeEvent{
		ID:         env.ID,
		Type:       models.EventType(env.Type),
		OccurredAt: occurred,
		StoryBeat:  env.StoryBeat,
		Comic:      env.Comic,
		Character:  env.Character,
		Media:      env.Media,
		Transition: env.Transition,
	}
	if err := h.intake.Submit(ctx, e); err != nil {
		h.metrics.RecordError("consumer_submit")
		return fmt.Errorf("submit %s: %w", env.ID, err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaEventsHandler)(nil)
