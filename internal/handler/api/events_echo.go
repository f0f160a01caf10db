package api

import (
	"net/http"
	"time"

	models "PanelPulse/internal/domain/models"
	"PanelPulse/internal/service/metrics"
	"PanelPulse/internal/service/ratelimit"
	"PanelPulse/internal/usecase"
	xhttp "PanelPulse/pkg/http"
	xlogger "PanelPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EventsEchoHandler exposes the narrative event submission endpoints.
type EventsEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.NarrativePipeline
	rl       *ratelimit.Limiter
}

func NewEventsEchoHandler(logger *xlogger.Logger, pipeline *usecase.NarrativePipeline) *EventsEchoHandler {
	metrics.Register()
	return &EventsEchoHandler{logger: logger, pipeline: pipeline, rl: ratelimit.New()}
}

func (h *EventsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/events")
	g.POST("/storybeat", h.StoryBeat)
	g.POST("/comic", h.ComicIssue)
	g.POST("/character", h.CharacterUpdate)
	g.POST("/media", h.MediaPerformance)
	g.POST("/timeline", h.TimelineTransition)
}

// limited enforces the per-remote token bucket for an endpoint.
func (h *EventsEchoHandler) limited(c echo.Context, endpoint string) bool {
	if h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return false
	}
	metrics.EventsRateLimited.WithLabelValues(endpoint).Inc()
	h.logger.Warn("event submit rate_limited",
		xlogger.String("endpoint", endpoint), xlogger.String("remote", c.RealIP()))
	return true
}

func (h *EventsEchoHandler) StoryBeat(c echo.Context) error {
	start := time.Now()
	endpoint := "storybeat"
	defer func() { metrics.EventsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.StoryBeatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.limited(c, endpoint) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	beat := &models.StoryBeat{
		BeatID:            req.BeatID,
		Title:             req.Title,
		TimelineID:        req.TimelineID,
		PrimaryEntities:   req.PrimaryEntities,
		SecondaryEntities: req.SecondaryEntities,
		SignificantEvents: req.SignificantEvents,
	}
	if err := h.pipeline.SubmitStoryBeat(c.Request().Context(), beat); err != nil {
		metrics.EventsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("story beat submit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"status": "accepted", "beat_id": req.BeatID})
}

func (h *EventsEchoHandler) ComicIssue(c echo.Context) error {
	start := time.Now()
	endpoint := "comic"
	defer func() { metrics.EventsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ComicIssueRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.limited(c, endpoint) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	issue := &models.ComicIssue{
		Series:            req.Series,
		IssueName:         req.IssueName,
		FirstAppearances:  req.FirstAppearances,
		Writers:           req.Writers,
		Artists:           req.Artists,
		SignificantEvents: req.SignificantEvents,
		KeyIssueRating:    req.KeyIssueRating,
	}
	if err := h.pipeline.SubmitComicIssue(c.Request().Context(), issue); err != nil {
		metrics.EventsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("comic issue submit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"status": "accepted", "issue": req.IssueName})
}

func (h *EventsEchoHandler) CharacterUpdate(c echo.Context) error {
	start := time.Now()
	endpoint := "character"
	defer func() { metrics.EventsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.CharacterUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.limited(c, endpoint) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	upd := &models.CharacterUpdate{
		Name:             req.Name,
		Identity:         req.Identity,
		PowerLevel:       req.PowerLevel,
		Strength:         req.Strength,
		Speed:            req.Speed,
		Intelligence:     req.Intelligence,
		SpecialAbilities: req.SpecialAbilities,
		Teams:            req.Teams,
	}
	if err := h.pipeline.SubmitCharacterUpdate(c.Request().Context(), upd); err != nil {
		metrics.EventsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("character update submit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"status": "accepted", "name": req.Name})
}

func (h *EventsEchoHandler) MediaPerformance(c echo.Context) error {
	start := time.Now()
	endpoint := "media"
	defer func() { metrics.EventsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.MediaPerformanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.limited(c, endpoint) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	media := &models.MediaPerformance{
		FilmTitle:          req.FilmTitle,
		FeaturedCharacters: req.FeaturedCharacters,
		WorldwideGross:     req.WorldwideGross,
		CriticScore:        req.CriticScore,
		SuccessCategory:    req.SuccessCategory,
	}
	if err := h.pipeline.SubmitMediaPerformance(c.Request().Context(), media); err != nil {
		metrics.EventsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("media performance submit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"status": "accepted", "film": req.FilmTitle})
}

func (h *EventsEchoHandler) TimelineTransition(c echo.Context) error {
	start := time.Now()
	endpoint := "timeline"
	defer func() { metrics.EventsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.TimelineTransitionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.limited(c, endpoint) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	tr := &models.TimelineTransition{
		TimelineID:   req.TimelineID,
		TimelineName: req.TimelineName,
		Status:       req.Status,
		TimelineType: req.TimelineType,
		Scope:        req.Scope,
		Universe:     req.Universe,
	}
	if err := h.pipeline.SubmitTimelineTransition(c.Request().Context(), tr); err != nil {
		metrics.EventsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("timeline transition submit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"status": "accepted", "timeline": req.TimelineID})
}
