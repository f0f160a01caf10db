package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"PanelPulse/internal/domain/models"
	drepo "PanelPulse/internal/domain/repository"
	icache "PanelPulse/internal/service/cache"
	"PanelPulse/pkg/logger"
)

const lockShards = 64

// MetricsUpdater applies signal batches to one entity's metrics atomically.
// Writes to the same entity serialize on a striped per-entity mutex; writes
// to different entities proceed in parallel.
type MetricsUpdater struct {
	store   drepo.MetricsStore
	cache   *icache.FreshnessCache
	metrics drepo.Metrics
	logger  *logger.Logger
	locks   [lockShards]chan struct{}
	now     func() time.Time
}

// NewMetricsUpdater creates a new MetricsUpdater.
func NewMetricsUpdater(store drepo.MetricsStore, cache *icache.FreshnessCache, metrics drepo.Metrics, l *logger.Logger) *MetricsUpdater {
	u := &MetricsUpdater{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  l,
		now:     time.Now,
	}
	for i := range u.locks {
		u.locks[i] = make(chan struct{}, 1)
	}
	return u
}

func (u *MetricsUpdater) shard(entityID string) chan struct{} {
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	return u.locks[h.Sum32()%lockShards]
}

// Apply sums the signals by kind, adds the aggregates to the entity's scores,
// clamps, bumps the calculation version, and writes back through the cache.
func (u *MetricsUpdater) Apply(ctx context.Context, entityID string, signals []models.Signal) (*models.TradingMetrics, error) {
	if len(signals) == 0 {
		return nil, nil
	}
	return u.mutate(ctx, entityID, func(m *models.TradingMetrics) {
		sums := models.SumByKind(signals)
		m.VolatilityScore += sums[models.SignalVolatility]
		m.MomentumScore += sums[models.SignalMomentum] + sums[models.SignalSentiment]
		m.MediaBoostFactor += sums[models.SignalCulturalImpact]
	})
}

// ApplyCharacterProfile records house affiliation and power-derived
// volatility for a character entity.
func (u *MetricsUpdater) ApplyCharacterProfile(ctx context.Context, entityID, house string, powerFactor float64) (*models.TradingMetrics, error) {
	return u.mutate(ctx, entityID, func(m *models.TradingMetrics) {
		m.HouseAffiliation = house
		m.VolatilityScore += powerFactor * 0.1
	})
}

// ApplyArcPhase stamps the entity's story arc phase and applies the phase's
// volatility multiplier.
func (u *MetricsUpdater) ApplyArcPhase(ctx context.Context, entityID string, phase models.ArcPhase) (*models.TradingMetrics, error) {
	return u.mutate(ctx, entityID, func(m *models.TradingMetrics) {
		mult := models.MultipliersForPhase(phase)
		m.StoryArcPhase = phase
		m.VolatilityScore *= mult.Volatility
	})
}

// Refresh recomputes an entity's record without new signals: version bump and
// timestamp only. A fresh cache entry short-circuits the recompute.
func (u *MetricsUpdater) Refresh(ctx context.Context, entityID string) (*models.TradingMetrics, error) {
	if m, ok := u.cache.Get(entityID); ok {
		return m, nil
	}
	return u.mutate(ctx, entityID, func(m *models.TradingMetrics) {})
}

func (u *MetricsUpdater) mutate(ctx context.Context, entityID string, apply func(*models.TradingMetrics)) (*models.TradingMetrics, error) {
	lock := u.shard(entityID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-lock }()

	start := u.now()

	m, err := u.load(ctx, entityID)
	if err != nil {
		u.metrics.RecordError("metrics_load")
		return nil, fmt.Errorf("%w: load %s: %v", models.ErrUpdateFailed, entityID, err)
	}

	apply(m)
	m.Clamp()
	m.CalculationVersion++
	m.LastRecalculatedAt = u.now()

	if err := u.store.Store(ctx, m); err != nil {
		u.metrics.RecordError("metrics_store")
		u.logger.Error("metrics store failed",
			logger.String("entity", entityID), logger.Error(err))
		return nil, fmt.Errorf("%w: store %s: %v", models.ErrUpdateFailed, entityID, err)
	}

	// write-through only after the durable write succeeded
	u.cache.Set(entityID, m)

	u.metrics.RecordScore(entityID, "volatility", m.VolatilityScore)
	u.metrics.RecordScore(entityID, "momentum", m.MomentumScore)
	u.metrics.RecordLatency("metrics_update", time.Since(start).Seconds())
	return m, nil
}

// load reads the current record, preferring a fresh cache entry; a cache
// failure is treated as a miss. Unknown entities get a zeroed baseline.
func (u *MetricsUpdater) load(ctx context.Context, entityID string) (*models.TradingMetrics, error) {
	if m, ok := u.cache.Get(entityID); ok {
		return m, nil
	}
	m, err := u.store.Load(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return models.NewBaselineMetrics(entityID), nil
	}
	return m, nil
}
