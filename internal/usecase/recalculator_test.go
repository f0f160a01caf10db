package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"PanelPulse/pkg/metrics"
)

func TestRunFullPassChunks(t *testing.T) {
	rig := newTestRig(t)
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("e%02d", i)
		rig.catalog.Add(character(id, "Entity "+id))
	}

	recalc := NewBatchRecalculator(rig.catalog, rig.updater, metrics.Noop{}, testLogger(t),
		WithChunkPause(time.Millisecond))

	res, err := recalc.RunFullPass(context.Background())
	if err != nil {
		t.Fatalf("full pass: %v", err)
	}
	if res.Attempted != 30 {
		t.Fatalf("attempted = %d, want 30", res.Attempted)
	}
	if res.Succeeded != 30 {
		t.Fatalf("succeeded = %d, want 30", res.Succeeded)
	}
	if res.Chunks != 2 {
		t.Fatalf("chunks = %d, want 2 for 30 entities at chunk size 25", res.Chunks)
	}

	m, err := rig.store.Load(context.Background(), "e00")
	if err != nil || m == nil {
		t.Fatalf("load after pass: %v, %v", m, err)
	}
	if m.CalculationVersion != 1 {
		t.Fatalf("version = %d, want 1 after one refresh", m.CalculationVersion)
	}
}

func TestRunFullPassCustomChunkSize(t *testing.T) {
	rig := newTestRig(t)
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("e%02d", i)
		rig.catalog.Add(character(id, "Entity "+id))
	}

	recalc := NewBatchRecalculator(rig.catalog, rig.updater, metrics.Noop{}, testLogger(t),
		WithChunkSize(10), WithChunkPause(0))

	res, err := recalc.RunFullPass(context.Background())
	if err != nil {
		t.Fatalf("full pass: %v", err)
	}
	if res.Chunks != 3 {
		t.Fatalf("chunks = %d, want 3 for 25 entities at chunk size 10", res.Chunks)
	}
	if res.Succeeded != 25 {
		t.Fatalf("succeeded = %d, want 25", res.Succeeded)
	}
}

func TestRunFullPassEmptyCatalog(t *testing.T) {
	rig := newTestRig(t)
	recalc := NewBatchRecalculator(rig.catalog, rig.updater, metrics.Noop{}, testLogger(t))

	res, err := recalc.RunFullPass(context.Background())
	if err != nil {
		t.Fatalf("full pass: %v", err)
	}
	if res.Attempted != 0 || res.Chunks != 0 {
		t.Fatalf("unexpected result for empty catalog: %+v", res)
	}
}
