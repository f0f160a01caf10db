package usecase

import (
	"context"
	"errors"

	"PanelPulse/internal/domain/models"
	drepo "PanelPulse/internal/domain/repository"
)

// EntityResolver maps a narrative event to the set of affected tradable
// entities by name lookup against the catalog.
type EntityResolver struct {
	catalog drepo.EntityCatalog
	metrics drepo.Metrics
}

// NewEntityResolver creates a new EntityResolver.
func NewEntityResolver(catalog drepo.EntityCatalog, metrics drepo.Metrics) *EntityResolver {
	return &EntityResolver{catalog: catalog, metrics: metrics}
}

// Resolve returns the deduplicated entities the event references. Names not
// in the catalog are skipped silently; an event may resolve to zero entities.
func (r *EntityResolver) Resolve(ctx context.Context, e *models.NarrativeEvent) ([]*models.TradableEntity, error) {
	names := e.EntityNames()
	if len(names) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]*models.TradableEntity, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		ent, err := r.catalog.ResolveByName(ctx, name)
		if err != nil {
			if errors.Is(err, models.ErrEntityUnknown) {
				continue
			}
			r.metrics.RecordError("catalog_lookup")
			return out, err
		}
		if _, dup := seen[ent.ID]; dup {
			continue
		}
		seen[ent.ID] = struct{}{}
		out = append(out, ent)
	}
	return out, nil
}
