package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"PanelPulse/internal/domain/models"
	"PanelPulse/internal/domain/repository"
)

// MemoryEntityCatalog is an in-memory EntityCatalog for the memory backend
// and for tests.
type MemoryEntityCatalog struct {
	mu     sync.RWMutex
	byID   map[string]*models.TradableEntity
	byName map[string]string // lowercase name -> id
}

// NewMemoryEntityCatalog creates a catalog seeded with the given entities.
func NewMemoryEntityCatalog(entities ...*models.TradableEntity) *MemoryEntityCatalog {
	c := &MemoryEntityCatalog{
		byID:   make(map[string]*models.TradableEntity),
		byName: make(map[string]string),
	}
	for _, e := range entities {
		c.Add(e)
	}
	return c
}

// Add registers an entity. Name lookup is case-insensitive.
func (c *MemoryEntityCatalog) Add(e *models.TradableEntity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[e.ID] = e
	c.byName[strings.ToLower(e.Name)] = e.ID
}

func (c *MemoryEntityCatalog) ResolveByName(_ context.Context, name string) (*models.TradableEntity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return nil, models.ErrEntityUnknown
	}
	return c.byID[id], nil
}

func (c *MemoryEntityCatalog) List(_ context.Context) ([]*models.TradableEntity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.TradableEntity, 0, len(c.byID))
	for _, e := range c.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemoryEntityCatalog) Health(context.Context) error { return nil }

var _ repository.EntityCatalog = (*MemoryEntityCatalog)(nil)

// MemoryMetricsStore is an in-memory MetricsStore. Writes keep only the
// latest version per entity; RecentlyUpdated filters on recalculated_at.
type MemoryMetricsStore struct {
	mu sync.RWMutex
	m  map[string]*models.TradingMetrics
}

// NewMemoryMetricsStore creates an empty metrics store.
func NewMemoryMetricsStore() *MemoryMetricsStore {
	return &MemoryMetricsStore{m: make(map[string]*models.TradingMetrics)}
}

func (s *MemoryMetricsStore) Load(_ context.Context, entityID string) (*models.TradingMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.m[entityID]
	if !ok {
		return nil, nil
	}
	return m.Clone(), nil
}

func (s *MemoryMetricsStore) Store(_ context.Context, m *models.TradingMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[m.EntityID] = m.Clone()
	return nil
}

func (s *MemoryMetricsStore) RecentlyUpdated(_ context.Context, since time.Time, limit int) ([]*models.TradingMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TradingMetrics
	for _, m := range s.m {
		if m.LastRecalculatedAt.Before(since) {
			continue
		}
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryMetricsStore) Health(context.Context) error { return nil }

func (s *MemoryMetricsStore) Close() error { return nil }

var _ repository.MetricsStore = (*MemoryMetricsStore)(nil)

// MemoryAlertSink collects published opportunities in memory, for the memory
// backend and for tests.
type MemoryAlertSink struct {
	mu  sync.Mutex
	ops []*models.Opportunity
}

// NewMemoryAlertSink creates an empty sink.
func NewMemoryAlertSink() *MemoryAlertSink {
	return &MemoryAlertSink{}
}

func (s *MemoryAlertSink) Publish(_ context.Context, o *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, o)
	return nil
}

func (s *MemoryAlertSink) PublishBatch(ctx context.Context, ops []*models.Opportunity) error {
	for _, o := range ops {
		if err := s.Publish(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryAlertSink) Close() error { return nil }

// Published returns a snapshot of everything published so far.
func (s *MemoryAlertSink) Published() []*models.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Opportunity, len(s.ops))
	copy(out, s.ops)
	return out
}

var _ repository.AlertSink = (*MemoryAlertSink)(nil)
