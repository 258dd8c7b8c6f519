package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/babymonitor-readings/internal/model"
	"github.com/iliyamo/babymonitor-readings/internal/observability"
	"github.com/iliyamo/babymonitor-readings/internal/repository"
	"github.com/iliyamo/babymonitor-readings/internal/service"
)

// RecentReadings is the operation the handler exposes.
type RecentReadings interface {
	GetRecentReadings(ctx context.Context, limit int) ([]model.Reading, error)
}

// ReadingHandler serves the recent-readings endpoint.
type ReadingHandler struct {
	Readings RecentReadings
	Metrics  *observability.Metrics // optional
}

// ParseLimit reads the optional limit parameter.  An absent or empty value
// yields service.NoLimit so the configured default applies; anything that is
// not a non-negative base-10 integer wraps service.ErrInvalidLimit.
func ParseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return service.NoLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			// too large to represent; the service clamps to its maximum
			return int(^uint(0) >> 1), nil
		}
		return 0, fmt.Errorf("%w: %q", service.ErrInvalidLimit, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q", service.ErrInvalidLimit, raw)
	}
	return n, nil
}

// GetRecent returns the latest readings as a JSON array, oldest first.
// GET and POST behave the same; limit is read from the query string.
func (h *ReadingHandler) GetRecent(c echo.Context) error {
	limit, err := ParseLimit(c.QueryParam("limit"))
	if err != nil {
		return h.fail(c, 0, err)
	}

	start := time.Now()
	readings, err := h.Readings.GetRecentReadings(c.Request().Context(), limit)
	elapsed := time.Since(start)
	if err != nil {
		return h.fail(c, elapsed, err)
	}
	h.Metrics.ObserveQuery(elapsed, len(readings), "")
	return c.JSON(http.StatusOK, readings)
}

func (h *ReadingHandler) fail(c echo.Context, elapsed time.Duration, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidLimit):
		h.Metrics.ObserveQuery(elapsed, 0, "invalid_limit")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_limit", "message": err.Error()})
	case errors.Is(err, repository.ErrMalformedReading):
		h.Metrics.ObserveQuery(elapsed, 0, "malformed_reading")
		c.Logger().Errorf("readings: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "malformed_reading", "message": "a stored reading could not be decoded"})
	case errors.Is(err, context.DeadlineExceeded):
		h.Metrics.ObserveQuery(elapsed, 0, "timeout")
		c.Logger().Errorf("readings: %v", err)
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout", "message": "readings query timed out"})
	default:
		h.Metrics.ObserveQuery(elapsed, 0, "database_error")
		c.Logger().Errorf("readings: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error", "message": "readings are temporarily unavailable"})
	}
}
