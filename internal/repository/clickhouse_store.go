package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PanelPulse/internal/domain/models"
	"PanelPulse/internal/domain/repository"
)

// CHEntityCatalog implements EntityCatalog over the ClickHouse entities table.
type CHEntityCatalog struct {
	db    *sql.DB
	table string
}

// NewCHEntityCatalog creates a ClickHouse entity catalog.
func NewCHEntityCatalog(db *sql.DB, table string) repository.EntityCatalog {
	return &CHEntityCatalog{db: db, table: table}
}

func (c *CHEntityCatalog) ResolveByName(ctx context.Context, name string) (*models.TradableEntity, error) {
	q := fmt.Sprintf("SELECT id, name, kind, universe FROM %s WHERE lowerUTF8(name) = lowerUTF8(?) LIMIT 1", c.table)
	row := c.db.QueryRowContext(ctx, q, name)

	var e models.TradableEntity
	var kind string
	if err := row.Scan(&e.ID, &e.Name, &kind, &e.Universe); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEntityUnknown
		}
		return nil, fmt.Errorf("resolve %q: %w", name, err)
	}
	e.Kind = models.EntityKind(kind)
	return &e, nil
}

func (c *CHEntityCatalog) List(ctx context.Context) ([]*models.TradableEntity, error) {
	q := fmt.Sprintf("SELECT id, name, kind, universe FROM %s ORDER BY id", c.table)
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []*models.TradableEntity
	for rows.Next() {
		var e models.TradableEntity
		var kind string
		if err := rows.Scan(&e.ID, &e.Name, &kind, &e.Universe); err != nil {
			return nil, err
		}
		e.Kind = models.EntityKind(kind)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (c *CHEntityCatalog) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// CHMetricsStore implements MetricsStore over an insert-only ClickHouse
// table: each update is a new row at a higher calculation_version, and reads
// take the latest version per entity. Matches the superseded-never-deleted
// record model.
type CHMetricsStore struct {
	db    *sql.DB
	table string
}

// NewCHMetricsStore creates a ClickHouse metrics store.
func NewCHMetricsStore(db *sql.DB, table string) repository.MetricsStore {
	return &CHMetricsStore{db: db, table: table}
}

func (s *CHMetricsStore) Load(ctx context.Context, entityID string) (*models.TradingMetrics, error) {
	q := fmt.Sprintf(`SELECT entity_id, volatility, momentum, media_boost, house, arc_phase, calculation_version, recalculated_at
FROM %s WHERE entity_id = ? ORDER BY calculation_version DESC LIMIT 1`, s.table)
	row := s.db.QueryRowContext(ctx, q, entityID)

	m, err := scanMetrics(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load metrics %s: %w", entityID, err)
	}
	return m, nil
}

func (s *CHMetricsStore) Store(ctx context.Context, m *models.TradingMetrics) error {
	q := fmt.Sprintf(`INSERT INTO %s (entity_id, volatility, momentum, media_boost, house, arc_phase, calculation_version, recalculated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		m.EntityID,
		m.VolatilityScore,
		m.MomentumScore,
		m.MediaBoostFactor,
		m.HouseAffiliation,
		string(m.StoryArcPhase),
		m.CalculationVersion,
		m.LastRecalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("store metrics %s: %w", m.EntityID, err)
	}
	return nil
}

func (s *CHMetricsStore) RecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]*models.TradingMetrics, error) {
	q := fmt.Sprintf(`SELECT entity_id,
  argMax(volatility, calculation_version),
  argMax(momentum, calculation_version),
  argMax(media_boost, calculation_version),
  argMax(house, calculation_version),
  argMax(arc_phase, calculation_version),
  max(calculation_version),
  argMax(recalculated_at, calculation_version)
FROM %s GROUP BY entity_id
HAVING argMax(recalculated_at, calculation_version) >= ?
LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recently updated: %w", err)
	}
	defer rows.Close()

	var out []*models.TradingMetrics
	for rows.Next() {
		m, err := scanMetrics(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *CHMetricsStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHMetricsStore) Close() error {
	return nil // pool managed by pkg/clickhouse
}

func scanMetrics(scan func(...any) error) (*models.TradingMetrics, error) {
	var m models.TradingMetrics
	var house, phase string
	if err := scan(&m.EntityID, &m.VolatilityScore, &m.MomentumScore, &m.MediaBoostFactor,
		&house, &phase, &m.CalculationVersion, &m.LastRecalculatedAt); err != nil {
		return nil, err
	}
	m.HouseAffiliation = house
	m.StoryArcPhase = models.ArcPhase(phase)
	return &m, nil
}

// CHOpportunityArchive implements AlertSink by archiving opportunities into
// ClickHouse for the query layer.
type CHOpportunityArchive struct {
	db    *sql.DB
	table string
}

// NewCHOpportunityArchive creates a ClickHouse opportunity archive.
func NewCHOpportunityArchive(db *sql.DB, table string) repository.AlertSink {
	return &CHOpportunityArchive{db: db, table: table}
}

func (a *CHOpportunityArchive) Publish(ctx context.Context, o *models.Opportunity) error {
	q := fmt.Sprintf("INSERT INTO %s (entity_id, kind, score, house, recommendation, detected_at) VALUES (?, ?, ?, ?, ?, ?)", a.table)
	_, err := a.db.ExecContext(ctx, q, o.EntityID, string(o.Kind), o.Score, o.House, o.Recommendation, o.DetectedAt)
	return err
}

func (a *CHOpportunityArchive) PublishBatch(ctx context.Context, ops []*models.Opportunity) error {
	for _, o := range ops {
		if err := a.Publish(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (a *CHOpportunityArchive) Close() error { return nil }
