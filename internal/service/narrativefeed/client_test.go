package narrativefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PanelPulse/internal/domain/models"
)

func TestBackfillDisabledWithoutRESTURL(t *testing.T) {
	c := New("key", "ws://feed", "", nil, time.Second, time.Second)
	events, err := c.Backfill(context.Background())
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if events != nil {
		t.Fatalf("events = %v, want nil", events)
	}
}

func TestBackfillFetchesRecentEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/recent" {
			t.Errorf("path = %s, want /events/recent", r.URL.Path)
		}
		if got := r.URL.Query().Get("token"); got != "secret" {
			t.Errorf("token = %q, want secret", got)
		}
		_ = json.NewEncoder(w).Encode(feedMessage{
			Type: "event",
			Data: []feedEvent{
				{
					ID:         "ev-1",
					EventType:  "character_update",
					OccurredAt: 1700000000,
					Character:  &models.CharacterUpdate{Name: "Raven", PowerLevel: 5},
				},
				{
					ID:        "ev-2",
					EventType: "story_beat",
					StoryBeat: &models.StoryBeat{BeatID: "b1", Title: "The Fall"},
				},
			},
		})
	}))
	defer srv.Close()

	c := New("secret", "ws://feed", srv.URL, nil, time.Second, time.Second)
	events, err := c.Backfill(context.Background())
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}

	first := events[0]
	if first.ID != "ev-1" || first.Type != models.EventCharacterUpdate {
		t.Fatalf("first event = %+v", first)
	}
	if !first.OccurredAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("OccurredAt = %v, want unix 1700000000", first.OccurredAt)
	}
	if first.Character == nil || first.Character.Name != "Raven" {
		t.Fatal("character payload not carried through")
	}

	// occurred_at omitted upstream defaults to the receive time
	if events[1].OccurredAt.IsZero() {
		t.Fatal("second event OccurredAt should default to now")
	}
}

func TestBackfillUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shedding load", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("secret", "ws://feed", srv.URL, nil, time.Second, time.Second)
	if _, err := c.Backfill(context.Background()); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
