package server

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"BlogPublisher/internal/content"
	"BlogPublisher/internal/domain"
)

const defaultRecentLimit = 20

type handlers struct {
	publisher Publisher
	health    HealthChecker
	interval  time.Duration
}

type homeView struct {
	Interval    time.Duration
	State       domain.CycleState
	Placeholder domain.Topic
}

type resultView struct {
	Topic      domain.Topic
	Filename   string
	SyncStatus domain.SyncStatus
	SyncError  string
	URL        string
	Announced  bool
	HTML       template.HTML
}

func (h *handlers) register(e *echo.Echo) {
	e.GET("/", h.home)
	e.POST("/generate", h.generate)
	e.GET("/health", h.healthz)
	e.GET("/status", h.status)
	e.GET("/artifacts", h.artifacts)
	e.POST("/artifacts/:filename/resync", h.resync)
}

func (h *handlers) home(c echo.Context) error {
	return c.Render(http.StatusOK, "home.html", homeView{
		Interval:    h.interval,
		State:       h.publisher.State(),
		Placeholder: h.publisher.PickTopic(),
	})
}

func (h *handlers) generate(c echo.Context) error {
	topic := strings.TrimSpace(c.FormValue("topic"))
	if topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}

	result, err := h.publisher.RunCycle(c.Request().Context(), domain.Topic(topic))
	if err != nil {
		return err
	}

	// goldmark drops raw HTML from the source, so the output is safe to embed.
	body, err := content.RenderHTML(result.Article.Body)
	if err != nil {
		return err
	}

	view := resultView{
		Topic:     result.Topic,
		Announced: result.Announced,
		HTML:      template.HTML(body),
	}
	if result.Record != nil {
		view.Filename = result.Record.Filename
		view.SyncStatus = result.Record.SyncStatus
		view.SyncError = result.Record.SyncError
		view.URL = result.Record.URL
	}

	return c.Render(http.StatusOK, "result.html", view)
}

func (h *handlers) healthz(c echo.Context) error {
	if !h.health.Healthy(c.Request().Context()) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"state":    h.publisher.State(),
		"interval": h.interval.String(),
	})
}

func (h *handlers) artifacts(c echo.Context) error {
	limit := defaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	records, err := h.publisher.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.ArtifactRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

func (h *handlers) resync(c echo.Context) error {
	record, err := h.publisher.Resync(c.Request().Context(), c.Param("filename"))
	if err != nil {
		if record.Filename != "" {
			return c.JSON(http.StatusBadGateway, map[string]any{"error": err.Error(), "record": record})
		}
		return err
	}
	return c.JSON(http.StatusOK, record)
}
