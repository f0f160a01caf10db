package middleware

import (
	"context"
	"fmt"
	"testing"

	"PanelPulse/internal/domain/models"
	"PanelPulse/pkg/metrics"
)

// procFunc adapts a function to the Proc interface.
type procFunc func(ctx context.Context, e *models.NarrativeEvent) error

func (f procFunc) ProcessEvent(ctx context.Context, e *models.NarrativeEvent) error {
	return f(ctx, e)
}

func beatEvent(id string) *models.NarrativeEvent {
	return &models.NarrativeEvent{
		ID:        id,
		Type:      models.EventStoryBeat,
		StoryBeat: &models.StoryBeat{BeatID: id},
	}
}

func TestSubmitForwardsToProcessor(t *testing.T) {
	var got *models.NarrativeEvent
	intake := NewEventIntake(procFunc(func(_ context.Context, e *models.NarrativeEvent) error {
		got = e
		return nil
	}), metrics.Noop{})

	if err := intake.Submit(context.Background(), beatEvent("beat-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got == nil || got.ID != "beat-1" {
		t.Fatalf("processor saw %+v", got)
	}
	if intake.BufferDepth() != 0 {
		t.Fatalf("buffer depth = %d, want 0", intake.BufferDepth())
	}
}

func TestSubmitRejectsInvalidEvents(t *testing.T) {
	intake := NewEventIntake(procFunc(func(context.Context, *models.NarrativeEvent) error {
		t.Fatalf("invalid event reached processor")
		return nil
	}), metrics.Noop{})
	ctx := context.Background()

	if err := intake.Submit(ctx, nil); err == nil {
		t.Fatalf("nil event accepted")
	}
	if err := intake.Submit(ctx, &models.NarrativeEvent{Type: models.EventStoryBeat}); err == nil {
		t.Fatalf("event without id accepted")
	}
	if err := intake.Submit(ctx, &models.NarrativeEvent{ID: "x", Type: models.EventStoryBeat}); err == nil {
		t.Fatalf("story beat without payload accepted")
	}
	if err := intake.Submit(ctx, &models.NarrativeEvent{ID: "x", Type: "mystery_meat"}); err == nil {
		t.Fatalf("unknown event type accepted")
	}
}

func TestSubmitBuffersOnProcessorFailure(t *testing.T) {
	intake := NewEventIntake(procFunc(func(context.Context, *models.NarrativeEvent) error {
		return fmt.Errorf("store down")
	}), metrics.Noop{})

	if err := intake.Submit(context.Background(), beatEvent("beat-1")); err == nil {
		t.Fatalf("expected downstream error")
	}
	if intake.BufferDepth() != 1 {
		t.Fatalf("buffer depth = %d, want 1", intake.BufferDepth())
	}
}

func TestSubmitThrottlesPerType(t *testing.T) {
	calls := 0
	intake := NewEventIntake(procFunc(func(context.Context, *models.NarrativeEvent) error {
		calls++
		return nil
	}), metrics.Noop{}, WithMaxRPS(1))
	ctx := context.Background()

	// Two immediate submissions of the same type: the second is throttled
	// silently.
	if err := intake.Submit(ctx, beatEvent("beat-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := intake.Submit(ctx, beatEvent("beat-2")); err != nil {
		t.Fatalf("throttled submit should not error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("processor calls = %d, want 1", calls)
	}

	// A different type has its own budget.
	other := &models.NarrativeEvent{
		ID:        "char-1",
		Type:      models.EventCharacterUpdate,
		Character: &models.CharacterUpdate{Name: "Hero Man"},
	}
	if err := intake.Submit(ctx, other); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if calls != 2 {
		t.Fatalf("processor calls = %d, want 2", calls)
	}
}
