package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/babymonitor-readings/internal/handler"
	"github.com/iliyamo/babymonitor-readings/internal/middleware"
	"github.com/iliyamo/babymonitor-readings/internal/observability"
	"github.com/iliyamo/babymonitor-readings/internal/repository"
	"github.com/iliyamo/babymonitor-readings/internal/service"
)

var cols = []string{"id", "temp", "hum", "dist", "relay", "motion", "vibrate", "status", "safety", "mode", "timestamp"}

// newServer wires the real repository, service and handler over sqlmock.
func newServer(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewReadingRepo(db, repository.MySQL, "baby_monitor", time.UTC)
	svc := service.NewReadingService(repo, service.Options{DefaultLimit: 50, MaxLimit: 1000, QueryTimeout: time.Second})
	metrics := observability.NewMetrics()

	e := echo.New()
	e.Use(middleware.CORS(), middleware.Metrics(metrics))
	RegisterRoutes(e, db, metrics.Handler())
	RegisterReadings(e, &handler.ReadingHandler{Readings: svc, Metrics: metrics})
	return e, mock
}

// tail returns rows for ids hi down to lo, as ORDER BY id DESC would.
func tail(hi, lo int64) *sqlmock.Rows {
	rows := sqlmock.NewRows(cols)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for id := hi; id >= lo; id-- {
		rows.AddRow(id, 36.5, 40.0, 12.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO",
			base.Add(time.Duration(id)*time.Minute).Format("2006-01-02 15:04:05"))
	}
	return rows
}

func decodeIDs(t *testing.T, rr *httptest.ResponseRecorder) []int64 {
	t.Helper()
	var body []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	out := make([]int64, len(body))
	for i, r := range body {
		out[i] = r.ID
	}
	return out
}

func TestLimitTenReturnsNewestTenAscending(t *testing.T) {
	e, mock := newServer(t)
	mock.ExpectQuery("ORDER BY `id` DESC LIMIT").WithArgs(10).WillReturnRows(tail(100, 91))

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/readings?limit=10", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	ids := decodeIDs(t, rr)
	if len(ids) != 10 || ids[0] != 91 || ids[9] != 100 {
		t.Fatalf("expected [91..100], got %v", ids)
	}
	if rr.Header().Get(echo.HeaderAccessControlAllowOrigin) != "*" {
		t.Fatalf("missing CORS header")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLegacyPathDefaultsToFifty(t *testing.T) {
	e, mock := newServer(t)
	mock.ExpectQuery("ORDER BY `id` DESC LIMIT").WithArgs(50).WillReturnRows(tail(5, 1))

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, LegacyReadingsPath, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ids := decodeIDs(t, rr); len(ids) != 5 || ids[0] != 1 || ids[4] != 5 {
		t.Fatalf("expected [1..5], got %v", ids)
	}
}

func TestEmptyTableIsEmptyArray(t *testing.T) {
	e, mock := newServer(t)
	mock.ExpectQuery("ORDER BY `id` DESC LIMIT").WithArgs(50).WillReturnRows(sqlmock.NewRows(cols))

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/readings", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "[]\n" {
		t.Fatalf("expected 200 [], got %d %q", rr.Code, rr.Body.String())
	}
}

func TestStorageFailureIs500(t *testing.T) {
	e, mock := newServer(t)
	mock.ExpectQuery("ORDER BY `id` DESC LIMIT").WillReturnError(errors.New("connection refused"))

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/readings?limit=3", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestReadyzPingsDatabase(t *testing.T) {
	e, mock := newServer(t)
	mock.ExpectPing()

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e, _ := newServer(t)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
