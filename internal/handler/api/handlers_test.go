package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"PanelPulse/internal/domain/models"
	"PanelPulse/internal/repository"
	icache "PanelPulse/internal/service/cache"
	"PanelPulse/internal/usecase"
	"PanelPulse/pkg/cache"
	"PanelPulse/pkg/logger"
	"PanelPulse/pkg/metrics"

	"github.com/labstack/echo/v4"
)

type apiRig struct {
	e         *echo.Echo
	catalog   *repository.MemoryEntityCatalog
	store     *repository.MemoryMetricsStore
	pipeline  *usecase.NarrativePipeline
	respCache cache.Service
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newAPIRig(t *testing.T, entities ...*models.TradableEntity) *apiRig {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	noop := metrics.Noop{}

	catalog := repository.NewMemoryEntityCatalog(entities...)
	store := repository.NewMemoryMetricsStore()
	fc := icache.New()
	updater := usecase.NewMetricsUpdater(store, fc, noop, l)
	resolver := usecase.NewEntityResolver(catalog, noop)
	pipeline := usecase.NewNarrativePipeline(resolver, updater, fc, repository.NewMemoryAlertSink(), noop, l)
	recalc := usecase.NewBatchRecalculator(catalog, updater, noop, l)
	detector := usecase.NewOpportunityDetector(store, noop)
	scheduler := usecase.NewScheduler(pipeline, recalc, detector, fc, noop, l)
	respCache := cache.NewMemoryCache()

	e := echo.New()
	NewEventsEchoHandler(l, pipeline).RegisterRoutes(e)
	NewPipelineEchoHandler(l, pipeline, scheduler, catalog, store, respCache).RegisterRoutes(e)

	return &apiRig{e: e, catalog: catalog, store: store, pipeline: pipeline, respCache: respCache}
}

func (r *apiRig) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestSubmitStoryBeatEndpoint(t *testing.T) {
	rig := newAPIRig(t, &models.TradableEntity{ID: "e1", Name: "Hero Man", Kind: models.EntityCharacter})

	body := `{"beat_id":"7","title":"The Fall","primary_entities":["Hero Man"],"significant_events":["Hero killed in battle"]}`
	_, env := rig.do(t, http.MethodPost, "/api/events/storybeat", body)
	if env.Status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", env.Status)
	}

	m, err := rig.store.Load(context.Background(), "e1")
	if err != nil || m == nil {
		t.Fatalf("load after submit: %v, %v", m, err)
	}
	if m.CalculationVersion != 1 {
		t.Fatalf("version = %d, want 1", m.CalculationVersion)
	}
}

func TestSubmitStoryBeatValidation(t *testing.T) {
	rig := newAPIRig(t)

	// title missing
	_, env := rig.do(t, http.MethodPost, "/api/events/storybeat", `{"beat_id":"7"}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestSubmitMediaPerformanceValidation(t *testing.T) {
	rig := newAPIRig(t)

	body := `{"film_title":"Crisis","success_category":"Blockbuster"}`
	_, env := rig.do(t, http.MethodPost, "/api/events/media", body)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad success_category", env.Status)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	rig := newAPIRig(t)

	body := `{"timeline_id":"tl-1","timeline_name":"Infinity Saga"}`
	limited := false
	// bucket capacity is 5; the burst must trip the limiter
	for i := 0; i < 8; i++ {
		_, env := rig.do(t, http.MethodPost, "/api/events/timeline", body)
		if env.Status == http.StatusTooManyRequests {
			limited = true
			break
		}
		if env.Status != http.StatusCreated {
			t.Fatalf("status = %d, want 201 before limit", env.Status)
		}
	}
	if !limited {
		t.Fatalf("burst of 8 submissions never rate limited")
	}
}

func TestEntityMetricsNotFound(t *testing.T) {
	rig := newAPIRig(t)

	_, env := rig.do(t, http.MethodGet, "/api/metrics/ghost", "")
	if env.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", env.Status)
	}
}

func TestEntityMetricsCachesResponse(t *testing.T) {
	rig := newAPIRig(t, &models.TradableEntity{ID: "e1", Name: "Hero Man", Kind: models.EntityCharacter})
	ctx := context.Background()

	if err := rig.store.Store(ctx, &models.TradingMetrics{EntityID: "e1", VolatilityScore: 1.5, CalculationVersion: 3}); err != nil {
		t.Fatalf("store: %v", err)
	}

	rec1, env := rig.do(t, http.MethodGet, "/api/metrics/e1", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	var got models.TradingMetrics
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if got.CalculationVersion != 3 {
		t.Fatalf("version = %d, want 3", got.CalculationVersion)
	}

	var cached string
	if err := rig.respCache.Get(ctx, "metrics:e1", &cached); err != nil {
		t.Fatalf("response not cached: %v", err)
	}

	// second read replays the cached body
	rec2, _ := rig.do(t, http.MethodGet, "/api/metrics/e1", "")
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("cached replay differs:\n%s\n%s", rec1.Body.String(), rec2.Body.String())
	}
}

func TestEntitiesList(t *testing.T) {
	rig := newAPIRig(t,
		&models.TradableEntity{ID: "e1", Name: "Hero Man", Kind: models.EntityCharacter},
		&models.TradableEntity{ID: "e2", Name: "Night Shadow", Kind: models.EntityCharacter},
	)

	_, env := rig.do(t, http.MethodGet, "/api/entities", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	var list struct {
		Rows  []*models.TradableEntity `json:"rows"`
		Total int64                    `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 2 || len(list.Rows) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list.Rows[0].ID != "e1" {
		t.Fatalf("rows not sorted by id: %s", list.Rows[0].ID)
	}
}

func TestOpportunitiesEndpoint(t *testing.T) {
	rig := newAPIRig(t)

	rig.pipeline.PublishOpportunities(context.Background(), []*models.Opportunity{
		{EntityID: "a", Kind: models.OpportunityHighVolatility, Score: 0.3},
		{EntityID: "b", Kind: models.OpportunityHighMomentum, Score: 2.5},
	})

	_, env := rig.do(t, http.MethodGet, "/api/opportunities?limit=1", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	var list struct {
		Rows  []*models.Opportunity `json:"rows"`
		Total int64                 `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Rows) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if list.Rows[0].EntityID != "b" {
		t.Fatalf("entity = %q, want newest first", list.Rows[0].EntityID)
	}
}

func TestOpportunitiesLimitValidation(t *testing.T) {
	rig := newAPIRig(t)

	_, env := rig.do(t, http.MethodGet, "/api/opportunities?limit=9999", "")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for limit above range", env.Status)
	}
}

func TestPipelineStatsEndpoint(t *testing.T) {
	rig := newAPIRig(t, &models.TradableEntity{ID: "e1", Name: "Hero Man", Kind: models.EntityCharacter})

	if err := rig.pipeline.SubmitCharacterUpdate(context.Background(), &models.CharacterUpdate{Name: "Hero Man", PowerLevel: 10}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, env := rig.do(t, http.MethodGet, "/api/pipeline/stats", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	var stats struct {
		TotalProcessed    int64  `json:"total_processed"`
		SuccessfulUpdates int64  `json:"successful_updates"`
		SchedulerState    string `json:"scheduler_state"`
		CacheSize         int    `json:"cache_size"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalProcessed != 1 || stats.SuccessfulUpdates != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.SchedulerState != "idle" {
		t.Fatalf("scheduler state = %q, want idle", stats.SchedulerState)
	}
	if stats.CacheSize != 1 {
		t.Fatalf("cache size = %d, want 1", stats.CacheSize)
	}
}
