package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"BlogPublisher/internal/apperr"
)

type errorView struct {
	Status  int
	Title   string
	Message string
}

// GlobalErrorHandler renders every error as an inline page, or as JSON for
// API routes and clients that ask for it.
func GlobalErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Unhandled error", "uri", c.Request().RequestURI, "error", err)
		}

		if wantsJSON(c) {
			_ = c.JSON(status, map[string]string{"error": message})
			return
		}

		view := errorView{Status: status, Title: http.StatusText(status), Message: message}
		if renderErr := c.Render(status, "error.html", view); renderErr != nil {
			_ = c.String(status, message)
		}
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var (
		ge  *apperr.GenerationError
		swe *apperr.StorageWriteError
	)
	switch {
	case errors.Is(err, apperr.ErrArtifactNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, apperr.ErrCycleInFlight):
		return http.StatusConflict, err.Error()
	case errors.As(err, &ge):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &swe):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request timed out waiting for the publish cycle"
	}
	return http.StatusInternalServerError, "internal server error"
}

func wantsJSON(c echo.Context) bool {
	path := c.Request().URL.Path
	for _, prefix := range []string{"/artifacts", "/status", "/health"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
