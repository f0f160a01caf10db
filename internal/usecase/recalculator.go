package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	drepo "PanelPulse/internal/domain/repository"
	"PanelPulse/pkg/logger"
)

// BatchResult summarizes one full recalculation pass.
type BatchResult struct {
	Attempted int
	Succeeded int
	Chunks    int
	Duration  time.Duration
}

// BatchRecalculator refreshes metrics for every cataloged entity in fixed
// size chunks, pausing between chunks to bound load on the store.
type BatchRecalculator struct {
	catalog   drepo.EntityCatalog
	updater   *MetricsUpdater
	metrics   drepo.Metrics
	logger    *logger.Logger
	chunkSize int
	pause     time.Duration
}

// RecalcOption configures BatchRecalculator.
type RecalcOption func(*BatchRecalculator)

// WithChunkSize sets how many entities are refreshed concurrently per chunk.
func WithChunkSize(n int) RecalcOption {
	return func(b *BatchRecalculator) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithChunkPause sets the pause between chunks.
func WithChunkPause(d time.Duration) RecalcOption {
	return func(b *BatchRecalculator) {
		if d >= 0 {
			b.pause = d
		}
	}
}

// NewBatchRecalculator creates a recalculator with chunk size 25 and a 50ms
// inter-chunk pause.
func NewBatchRecalculator(catalog drepo.EntityCatalog, updater *MetricsUpdater, metrics drepo.Metrics, l *logger.Logger, opts ...RecalcOption) *BatchRecalculator {
	b := &BatchRecalculator{
		catalog:   catalog,
		updater:   updater,
		metrics:   metrics,
		logger:    l,
		chunkSize: 25,
		pause:     50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunFullPass lists every known entity and refreshes each one. A single
// entity's failure is counted and skipped, never aborting the pass.
func (b *BatchRecalculator) RunFullPass(ctx context.Context) (BatchResult, error) {
	start := time.Now()

	entities, err := b.catalog.List(ctx)
	if err != nil {
		b.metrics.RecordError("catalog_list")
		return BatchResult{}, err
	}

	var succeeded atomic.Int64
	res := BatchResult{Attempted: len(entities)}

	for i := 0; i < len(entities); i += b.chunkSize {
		end := i + b.chunkSize
		if end > len(entities) {
			end = len(entities)
		}
		chunk := entities[i:end]
		res.Chunks++

		var wg sync.WaitGroup
		for _, ent := range chunk {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := b.updater.Refresh(ctx, id); err != nil {
					b.metrics.RecordError("batch_refresh")
					return
				}
				succeeded.Add(1)
			}(ent.ID)
		}
		wg.Wait()

		if end < len(entities) && b.pause > 0 {
			select {
			case <-time.After(b.pause):
			case <-ctx.Done():
				res.Succeeded = int(succeeded.Load())
				res.Duration = time.Since(start)
				return res, ctx.Err()
			}
		}
	}

	res.Succeeded = int(succeeded.Load())
	res.Duration = time.Since(start)
	b.metrics.RecordLatency("batch_pass", res.Duration.Seconds())
	b.logger.Info("batch recalculation complete",
		logger.Int("attempted", res.Attempted),
		logger.Int("succeeded", res.Succeeded),
		logger.Int("chunks", res.Chunks),
		logger.Duration("took", res.Duration))
	return res, nil
}
