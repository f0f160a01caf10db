package repository

import (
	"context"
	"time"

	"PanelPulse/internal/domain/models"
)

// EventStream is an upstream feed of narrative events (WebSocket or similar).
type EventStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.NarrativeEvent, <-chan error)
	// Backfill fetches events published while the stream was not connected.
	// Implementations without a catch-up source return (nil, nil).
	Backfill(ctx context.Context) ([]*models.NarrativeEvent, error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// EntityCatalog is the read-only catalog of tradable entities.
type EntityCatalog interface {
	// ResolveByName looks an entity up by exact or case-insensitive name.
	// Returns models.ErrEntityUnknown when no entity matches.
	ResolveByName(ctx context.Context, name string) (*models.TradableEntity, error)
	List(ctx context.Context) ([]*models.TradableEntity, error)
	Health(ctx context.Context) error
}

// MetricsStore owns the durable per-entity metrics records. Records are
// superseded, never deleted; Store must persist the record as the entity's
// latest version.
type MetricsStore interface {
	// Load returns the current metrics for the entity, or (nil, nil) when the
	// entity has never been written.
	Load(ctx context.Context, entityID string) (*models.TradingMetrics, error)
	Store(ctx context.Context, m *models.TradingMetrics) error
	// RecentlyUpdated returns metrics whose LastRecalculatedAt >= since.
	RecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]*models.TradingMetrics, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertSink receives detected opportunities for downstream consumers.
type AlertSink interface {
	Publish(ctx context.Context, o *models.Opportunity) error
	PublishBatch(ctx context.Context, os []*models.Opportunity) error
	Close() error
}

// Metrics records operational telemetry.
type Metrics interface {
	RecordEventProcessed(eventType string)
	RecordOpportunity(kind string)
	RecordError(kind string)
	RecordScore(entityID, score string, value float64)
	RecordLatency(op string, seconds float64)
}
