package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "PanelPulse/internal/domain/models"
	domrepo "PanelPulse/internal/domain/repository"
	"PanelPulse/internal/usecase"
	"PanelPulse/pkg/cache"
	xhttp "PanelPulse/pkg/http"
	xlogger "PanelPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	metricsCacheTTL  = 15 * time.Second
	entitiesCacheTTL = 60 * time.Second
)

// PipelineEchoHandler exposes the read side: detected opportunities, entity
// metrics, and pipeline operational stats.
type PipelineEchoHandler struct {
	logger    *xlogger.Logger
	pipeline  *usecase.NarrativePipeline
	scheduler *usecase.Scheduler
	catalog   domrepo.EntityCatalog
	store     domrepo.MetricsStore
	respCache cache.Service
}

func NewPipelineEchoHandler(logger *xlogger.Logger, pipeline *usecase.NarrativePipeline, scheduler *usecase.Scheduler, catalog domrepo.EntityCatalog, store domrepo.MetricsStore, respCache cache.Service) *PipelineEchoHandler {
	return &PipelineEchoHandler{logger: logger, pipeline: pipeline, scheduler: scheduler, catalog: catalog, store: store, respCache: respCache}
}

func (h *PipelineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/opportunities", h.Opportunities)
	g.GET("/metrics/:entity", h.EntityMetrics)
	g.GET("/entities", h.Entities)
	g.GET("/pipeline/stats", h.Stats)
}

// cached replays a cached response body if present; the bool reports a hit.
func (h *PipelineEchoHandler) cached(c echo.Context, key string) bool {
	if h.respCache == nil {
		return false
	}
	var body string
	if err := h.respCache.Get(c.Request().Context(), key, &body); err != nil {
		return false
	}
	_ = c.JSONBlob(http.StatusOK, []byte(body))
	return true
}

func (h *PipelineEchoHandler) cacheAndRespond(c echo.Context, key string, data interface{}, ttl time.Duration) error {
	resp := xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: data}
	b, err := json.Marshal(resp)
	if err != nil {
		return xhttp.SuccessResponse(c, data)
	}
	if h.respCache != nil {
		if err := h.respCache.Set(c.Request().Context(), key, string(b), ttl); err != nil {
			h.logger.Warn("response cache set failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}

func (h *PipelineEchoHandler) Opportunities(c echo.Context) error {
	req := &models.OpportunitiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ops := h.pipeline.RecentOpportunities(req.Limit)
	return xhttp.ListResponse(c, ops, int64(len(ops)))
}

func (h *PipelineEchoHandler) EntityMetrics(c echo.Context) error {
	entityID := c.Param("entity")
	if entityID == "" {
		return xhttp.BadRequestResponse(c, "entity required")
	}

	key := "metrics:" + entityID
	if h.cached(c, key) {
		return nil
	}

	m, err := h.store.Load(c.Request().Context(), entityID)
	if err != nil {
		h.logger.Error("metrics load error", xlogger.String("entity", entityID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if m == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no metrics for %s", entityID))
	}
	return h.cacheAndRespond(c, key, m, metricsCacheTTL)
}

func (h *PipelineEchoHandler) Entities(c echo.Context) error {
	key := "entities"
	if h.cached(c, key) {
		return nil
	}

	entities, err := h.catalog.List(c.Request().Context())
	if err != nil {
		h.logger.Error("entity list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return h.cacheAndRespond(c, key, &xhttp.ListDataResponse{Rows: entities, Total: int64(len(entities))}, entitiesCacheTTL)
}

type pipelineStatsResponse struct {
	TotalProcessed      int64     `json:"total_processed"`
	SuccessfulUpdates   int64     `json:"successful_updates"`
	Errors              int64     `json:"errors"`
	AverageProcessingMS float64   `json:"average_processing_ms"`
	LastProcessingTime  time.Time `json:"last_processing_time"`
	QueueSize           int       `json:"queue_size"`
	CacheSize           int       `json:"cache_size"`
	SchedulerState      string    `json:"scheduler_state"`
}

func (h *PipelineEchoHandler) Stats(c echo.Context) error {
	st := h.pipeline.Stats()
	return xhttp.SuccessResponse(c, &pipelineStatsResponse{
		TotalProcessed:      st.TotalProcessed,
		SuccessfulUpdates:   st.SuccessfulUpdates,
		Errors:              st.Errors,
		AverageProcessingMS: float64(st.AverageProcessingTime) / float64(time.Millisecond),
		LastProcessingTime:  st.LastProcessingTime,
		QueueSize:           h.pipeline.QueueLen(),
		CacheSize:           h.pipeline.CacheLen(),
		SchedulerState:      h.scheduler.State(),
	})
}
