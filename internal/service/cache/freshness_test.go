package cache

import (
	"fmt"
	"testing"
	"time"

	"PanelPulse/internal/domain/models"
)

func testMetrics(id string) *models.TradingMetrics {
	m := models.NewBaselineMetrics(id)
	m.VolatilityScore = 1.5
	return m
}

func TestGetWithinTTL(t *testing.T) {
	now := time.Now()
	c := New(WithClock(func() time.Time { return now }))

	c.Set("e1", testMetrics("e1"))

	now = now.Add(4 * time.Minute)
	got, ok := c.Get("e1")
	if !ok {
		t.Fatalf("expected hit before TTL")
	}
	if got.EntityID != "e1" || got.VolatilityScore != 1.5 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestGetAtTTLBoundaryMisses(t *testing.T) {
	now := time.Now()
	c := New(WithClock(func() time.Time { return now }))

	c.Set("e1", testMetrics("e1"))

	// Age equal to TTL is already stale.
	now = now.Add(5 * time.Minute)
	if _, ok := c.Get("e1"); ok {
		t.Fatalf("expected miss at TTL boundary")
	}
	if c.Len() != 0 {
		t.Fatalf("stale entry not removed, len = %d", c.Len())
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	c := New()
	c.Set("e1", testMetrics("e1"))

	got, ok := c.Get("e1")
	if !ok {
		t.Fatalf("expected hit")
	}
	got.VolatilityScore = 99

	again, _ := c.Get("e1")
	if again.VolatilityScore != 1.5 {
		t.Fatalf("cache entry mutated through snapshot: %v", again.VolatilityScore)
	}
}

func TestSweep(t *testing.T) {
	now := time.Now()
	c := New(WithClock(func() time.Time { return now }), WithTTL(time.Minute))

	c.Set("old1", testMetrics("old1"))
	c.Set("old2", testMetrics("old2"))

	now = now.Add(30 * time.Second)
	c.Set("fresh", testMetrics("fresh"))

	now = now.Add(45 * time.Second)
	if dropped := c.Sweep(); dropped != 2 {
		t.Fatalf("sweep dropped %d, want 2", dropped)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatalf("fresh entry lost in sweep")
	}
}

func TestMaxSizeEviction(t *testing.T) {
	now := time.Now()
	c := New(WithClock(func() time.Time { return now }), WithMaxSize(3))

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("e%d", i), testMetrics(fmt.Sprintf("e%d", i)))
		now = now.Add(time.Second)
	}

	// Touch e0 so e1 becomes the least recently used.
	if _, ok := c.Get("e0"); !ok {
		t.Fatalf("expected e0 hit")
	}
	now = now.Add(time.Second)

	c.Set("e3", testMetrics("e3"))
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("e1"); ok {
		t.Fatalf("expected e1 evicted")
	}
	if _, ok := c.Get("e0"); !ok {
		t.Fatalf("recently used e0 should survive")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("e1", testMetrics("e1"))
	c.Invalidate("e1")
	if _, ok := c.Get("e1"); ok {
		t.Fatalf("expected miss after invalidate")
	}
}
