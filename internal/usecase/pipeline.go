package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PanelPulse/internal/domain/models"
	drepo "PanelPulse/internal/domain/repository"
	icache "PanelPulse/internal/service/cache"
	"PanelPulse/internal/services/signals"
	"PanelPulse/pkg/logger"
)

const recentOpportunityCap = 200

// NarrativePipeline turns narrative events into trading metric updates. It
// owns the point-update queue, the processing stats, and the recent
// opportunity ring. Constructed explicitly and injected into its host; no
// package-level state.
type NarrativePipeline struct {
	resolver *EntityResolver
	updater  *MetricsUpdater
	cache    *icache.FreshnessCache
	alerts   drepo.AlertSink
	metrics  drepo.Metrics
	logger   *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	stats   models.PipelineStats
	pending map[string]struct{}
	order   []string
	recent  []*models.Opportunity
}

// NewNarrativePipeline creates a new pipeline.
func NewNarrativePipeline(resolver *EntityResolver, updater *MetricsUpdater, cache *icache.FreshnessCache, alerts drepo.AlertSink, metrics drepo.Metrics, l *logger.Logger) *NarrativePipeline {
	return &NarrativePipeline{
		resolver: resolver,
		updater:  updater,
		cache:    cache,
		alerts:   alerts,
		metrics:  metrics,
		logger:   l,
		now:      time.Now,
		pending:  make(map[string]struct{}),
	}
}

// ProcessEvent runs one event through extraction, resolution, and update.
// Per-entity update failures are counted and queued for retry; they do not
// propagate. A resolver failure returns an error (nothing was applied yet,
// so the caller may safely retry the whole event).
func (p *NarrativePipeline) ProcessEvent(ctx context.Context, e *models.NarrativeEvent) error {
	start := p.now()

	sigs := signals.Extract(e)
	entities, err := p.resolver.Resolve(ctx, e)
	if err != nil {
		p.recordOutcome(start, false)
		return err
	}
	if len(entities) == 0 {
		// legitimate: event references no known entity
		p.metrics.RecordEventProcessed(string(e.Type))
		p.recordOutcome(start, true)
		return nil
	}

	failed := 0
	for _, ent := range entities {
		if err := p.applyToEntity(ctx, e, ent, sigs); err != nil {
			failed++
			p.QueueRefresh(ent.ID)
			if !errors.Is(err, models.ErrUpdateFailed) {
				p.logger.Warn("entity update error",
					logger.String("entity", ent.ID), logger.Error(err))
			}
		}
	}

	p.metrics.RecordEventProcessed(string(e.Type))
	p.recordOutcome(start, failed == 0)
	p.logger.Debug("event processed",
		logger.String("event", e.ID),
		logger.String("type", string(e.Type)),
		logger.Int("entities", len(entities)),
		logger.Int("failed", failed))
	return nil
}

func (p *NarrativePipeline) applyToEntity(ctx context.Context, e *models.NarrativeEvent, ent *models.TradableEntity, sigs []models.Signal) error {
	if _, err := p.updater.Apply(ctx, ent.ID, sigs); err != nil {
		return err
	}

	switch e.Type {
	case models.EventCharacterUpdate:
		if e.Character != nil && ent.Kind == models.EntityCharacter {
			house := signals.HouseAffiliation(e.Character)
			pf := signals.PowerVolatilityFactor(e.Character)
			if _, err := p.updater.ApplyCharacterProfile(ctx, ent.ID, house, pf); err != nil {
				return err
			}
		}
	case models.EventTimelineTransition:
		if e.Transition != nil {
			phase := signals.ArcPhaseForTimeline(e.Transition)
			if _, err := p.updater.ApplyArcPhase(ctx, ent.ID, phase); err != nil {
				return err
			}
		}
	}
	return nil
}

// SubmitStoryBeat processes a story beat publication.
func (p *NarrativePipeline) SubmitStoryBeat(ctx context.Context, b *models.StoryBeat) error {
	return p.ProcessEvent(ctx, &models.NarrativeEvent{
		ID: "beat-" + b.BeatID, Type: models.EventStoryBeat, OccurredAt: p.now(), StoryBeat: b,
	})
}

// SubmitComicIssue processes a comic issue release.
func (p *NarrativePipeline) SubmitComicIssue(ctx context.Context, c *models.ComicIssue) error {
	return p.ProcessEvent(ctx, &models.NarrativeEvent{
		ID: "comic-" + c.Series + "-" + c.IssueName, Type: models.EventComicIssue, OccurredAt: p.now(), Comic: c,
	})
}

// SubmitCharacterUpdate processes a character stat change.
func (p *NarrativePipeline) SubmitCharacterUpdate(ctx context.Context, c *models.CharacterUpdate) error {
	return p.ProcessEvent(ctx, &models.NarrativeEvent{
		ID: "char-" + c.Name, Type: models.EventCharacterUpdate, OccurredAt: p.now(), Character: c,
	})
}

// SubmitMediaPerformance processes a film/TV performance report.
func (p *NarrativePipeline) SubmitMediaPerformance(ctx context.Context, m *models.MediaPerformance) error {
	return p.ProcessEvent(ctx, &models.NarrativeEvent{
		ID: "media-" + m.FilmTitle, Type: models.EventMediaPerformance, OccurredAt: p.now(), Media: m,
	})
}

// SubmitTimelineTransition processes a timeline phase change.
func (p *NarrativePipeline) SubmitTimelineTransition(ctx context.Context, t *models.TimelineTransition) error {
	return p.ProcessEvent(ctx, &models.NarrativeEvent{
		ID: "timeline-" + t.TimelineID, Type: models.EventTimelineTransition, OccurredAt: p.now(), Transition: t,
	})
}

// QueueRefresh enqueues a point-update for the entity, deduplicated by id.
// The scheduler drains the queue on its next tick.
func (p *NarrativePipeline) QueueRefresh(entityID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[entityID]; ok {
		return
	}
	p.pending[entityID] = struct{}{}
	p.order = append(p.order, entityID)
}

// DrainQueue refreshes at most max queued entities and reports how many were
// attempted.
func (p *NarrativePipeline) DrainQueue(ctx context.Context, max int) int {
	p.mu.Lock()
	n := len(p.order)
	if n > max {
		n = max
	}
	batch := make([]string, n)
	copy(batch, p.order[:n])
	p.order = p.order[n:]
	for _, id := range batch {
		delete(p.pending, id)
	}
	p.mu.Unlock()

	for _, id := range batch {
		if _, err := p.updater.Refresh(ctx, id); err != nil {
			p.metrics.RecordError("queued_refresh")
			p.mu.Lock()
			p.stats.Errors++
			p.mu.Unlock()
		}
	}
	return len(batch)
}

// PublishOpportunities records detected opportunities in the in-memory ring
// and forwards them to the alert sink. Sink failures are counted, not fatal.
func (p *NarrativePipeline) PublishOpportunities(ctx context.Context, ops []*models.Opportunity) {
	if len(ops) == 0 {
		return
	}

	p.mu.Lock()
	p.recent = append(p.recent, ops...)
	if over := len(p.recent) - recentOpportunityCap; over > 0 {
		p.recent = p.recent[over:]
	}
	p.mu.Unlock()

	if p.alerts == nil {
		return
	}
	if err := p.alerts.PublishBatch(ctx, ops); err != nil {
		p.metrics.RecordError("alert_publish")
		p.logger.Warn("opportunity publish failed", logger.Error(err), logger.Int("count", len(ops)))
	}
}

// RecentOpportunities returns up to limit of the newest detected
// opportunities, newest first.
func (p *NarrativePipeline) RecentOpportunities(limit int) []*models.Opportunity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if limit <= 0 || limit > len(p.recent) {
		limit = len(p.recent)
	}
	out := make([]*models.Opportunity, 0, limit)
	for i := len(p.recent) - 1; i >= len(p.recent)-limit; i-- {
		out = append(out, p.recent[i])
	}
	return out
}

// Stats returns a snapshot of the processing counters.
func (p *NarrativePipeline) Stats() models.PipelineStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// QueueLen reports the pending point-update count.
func (p *NarrativePipeline) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// CacheLen reports the freshness cache entry count.
func (p *NarrativePipeline) CacheLen() int { return p.cache.Len() }

// recordOutcome maintains the counters with the running-average formula
// avg' = (avg*(n-1) + duration) / n.
func (p *NarrativePipeline) recordOutcome(start time.Time, success bool) {
	duration := p.now().Sub(start)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.TotalProcessed++
	if success {
		p.stats.SuccessfulUpdates++
	} else {
		p.stats.Errors++
	}
	p.stats.LastProcessingTime = p.now()
	n := p.stats.TotalProcessed
	p.stats.AverageProcessingTime = time.Duration(
		(int64(p.stats.AverageProcessingTime)*(n-1) + int64(duration)) / n,
	)
}
