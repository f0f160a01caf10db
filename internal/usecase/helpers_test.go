package usecase

import (
	"testing"

	"PanelPulse/internal/domain/models"
	"PanelPulse/internal/repository"
	icache "PanelPulse/internal/service/cache"
	"PanelPulse/pkg/logger"
	"PanelPulse/pkg/metrics"
)

// testRig wires the pipeline against in-memory backends.
type testRig struct {
	catalog  *repository.MemoryEntityCatalog
	store    *repository.MemoryMetricsStore
	cache    *icache.FreshnessCache
	alerts   *repository.MemoryAlertSink
	updater  *MetricsUpdater
	resolver *EntityResolver
	pipeline *NarrativePipeline
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestRig(t *testing.T, entities ...*models.TradableEntity) *testRig {
	t.Helper()
	l := testLogger(t)
	noop := metrics.Noop{}

	r := &testRig{
		catalog: repository.NewMemoryEntityCatalog(entities...),
		store:   repository.NewMemoryMetricsStore(),
		cache:   icache.New(),
		alerts:  repository.NewMemoryAlertSink(),
	}
	r.updater = NewMetricsUpdater(r.store, r.cache, noop, l)
	r.resolver = NewEntityResolver(r.catalog, noop)
	r.pipeline = NewNarrativePipeline(r.resolver, r.updater, r.cache, r.alerts, noop, l)
	return r
}

func character(id, name string) *models.TradableEntity {
	return &models.TradableEntity{ID: id, Name: name, Kind: models.EntityCharacter}
}
