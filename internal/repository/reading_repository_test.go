package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const mysqlLatest = "SELECT `id`, `temp`, `hum`, `dist`, `relay`, `motion`, `vibrate`, `status`, `safety`, `mode`, `timestamp` FROM `baby_monitor` ORDER BY `id` DESC LIMIT ?"

var readingCols = []string{"id", "temp", "hum", "dist", "relay", "motion", "vibrate", "status", "safety", "mode", "timestamp"}

func newMockRepo(t *testing.T, d Dialect, loc *time.Location) (*ReadingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewReadingRepo(db, d, "baby_monitor", loc), mock
}

func TestLatestQueryByDialect(t *testing.T) {
	if got := latestQuery(MySQL, "baby_monitor"); got != mysqlLatest {
		t.Fatalf("mysql query mismatch\n got: %s\nwant: %s", got, mysqlLatest)
	}
	want := `SELECT "id", "temp", "hum", "dist", "relay", "motion", "vibrate", "status", "safety", "mode", "timestamp" FROM "baby_monitor" ORDER BY "id" DESC LIMIT $1`
	if got := latestQuery(Postgres, "baby_monitor"); got != want {
		t.Fatalf("postgres query mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestLatestBindsLimitAndMapsRows(t *testing.T) {
	repo, mock := newMockRepo(t, MySQL, time.UTC)

	rows := sqlmock.NewRows(readingCols).
		AddRow(int64(100), 36.6, 41.5, nil, int64(1), int64(0), int64(0), "OK", "SAFE", "AUTO", "2024-03-01 21:04:05").
		AddRow(int64(99), 36.4, 41.0, 12.25, int64(0), int64(1), int64(1), "OK", "WARN", "AUTO", time.Date(2024, 3, 1, 21, 3, 5, 0, time.UTC))
	mock.ExpectQuery(mysqlLatest).WithArgs(2).WillReturnRows(rows)

	got, err := repo.Latest(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 100 || got[1].ID != 99 {
		t.Fatalf("expected newest-first ids [100 99], got %+v", got)
	}
	if got[0].Dist != nil {
		t.Fatalf("NULL dist should map to nil, got %v", *got[0].Dist)
	}
	if got[1].Dist == nil || *got[1].Dist != 12.25 {
		t.Fatalf("unexpected dist %v", got[1].Dist)
	}
	if got[0].Status.Value() != "OK" || got[0].Relay.Value() != int64(1) {
		t.Fatalf("scalars should pass through, got status=%v relay=%v", got[0].Status.Value(), got[0].Relay.Value())
	}
	if !got[0].Timestamp.Equal(time.Date(2024, 3, 1, 21, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %s", got[0].Timestamp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestReadsTextTimestampsInLocation(t *testing.T) {
	loc := time.FixedZone("IRST", 3*3600+1800)
	repo, mock := newMockRepo(t, MySQL, loc)

	rows := sqlmock.NewRows(readingCols).
		AddRow(int64(1), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "MANUAL", "2024-03-01 08:00:00").
		AddRow(int64(2), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "MANUAL", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	mock.ExpectQuery(mysqlLatest).WithArgs(50).WillReturnRows(rows)

	got, err := repo.Latest(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rd := range got {
		if _, off := rd.Timestamp.Zone(); off != 3*3600+1800 {
			t.Fatalf("reading %d: expected +03:30 offset, got %d", rd.ID, off)
		}
		if rd.Timestamp.Hour() != 8 {
			t.Fatalf("reading %d: wall clock should be kept, got %s", rd.ID, rd.Timestamp)
		}
	}
}

func TestLatestPostgresPlaceholder(t *testing.T) {
	repo, mock := newMockRepo(t, Postgres, time.UTC)
	mock.ExpectQuery(latestQuery(Postgres, "baby_monitor")).WithArgs(10).WillReturnRows(sqlmock.NewRows(readingCols))

	got, err := repo.Latest(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestLatestWrapsQueryErrors(t *testing.T) {
	repo, mock := newMockRepo(t, MySQL, time.UTC)
	mock.ExpectQuery(mysqlLatest).WithArgs(5).WillReturnError(sql.ErrConnDone)

	_, err := repo.Latest(context.Background(), 5)
	if !errors.Is(err, ErrQueryFailed) || !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
}

func TestLatestRowErrorIsQueryFailure(t *testing.T) {
	repo, mock := newMockRepo(t, MySQL, time.UTC)
	rows := sqlmock.NewRows(readingCols).
		AddRow(int64(3), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", "2024-03-01 08:00:00").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery(mysqlLatest).WithArgs(1).WillReturnRows(rows)

	if _, err := repo.Latest(context.Background(), 1); !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}

func TestLatestMalformedTimestampStrict(t *testing.T) {
	repo, mock := newMockRepo(t, MySQL, time.UTC)
	rows := sqlmock.NewRows(readingCols).
		AddRow(int64(7), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", "0000-00-00 00:00:00")
	mock.ExpectQuery(mysqlLatest).WithArgs(1).WillReturnRows(rows)

	_, err := repo.Latest(context.Background(), 1)
	if !errors.Is(err, ErrMalformedReading) {
		t.Fatalf("expected ErrMalformedReading, got %v", err)
	}
	var merr *MalformedReadingError
	if !errors.As(err, &merr) || merr.ID != 7 || merr.Raw != "0000-00-00 00:00:00" {
		t.Fatalf("expected details for row 7, got %#v", err)
	}
}

func TestLatestZeroDriverTimeFollowsPolicy(t *testing.T) {
	repo, mock := newMockRepo(t, MySQL, time.UTC)
	rows := sqlmock.NewRows(readingCols).
		AddRow(int64(7), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", time.Time{})
	mock.ExpectQuery(mysqlLatest).WithArgs(1).WillReturnRows(rows)

	if _, err := repo.Latest(context.Background(), 1); !errors.Is(err, ErrMalformedReading) {
		t.Fatalf("expected ErrMalformedReading for zero datetime, got %v", err)
	}

	repo.SkipMalformed = true
	rows = sqlmock.NewRows(readingCols).
		AddRow(int64(8), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)).
		AddRow(int64(7), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", time.Time{})
	mock.ExpectQuery(mysqlLatest).WithArgs(2).WillReturnRows(rows)

	got, err := repo.Latest(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 8 {
		t.Fatalf("expected only row 8, got %+v", got)
	}
}

func TestLatestMalformedTimestampSkip(t *testing.T) {
	repo, mock := newMockRepo(t, MySQL, time.UTC)
	repo.SkipMalformed = true
	var warnings []string
	repo.Warnf = func(format string, args ...any) { warnings = append(warnings, format) }

	rows := sqlmock.NewRows(readingCols).
		AddRow(int64(9), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", "yesterday").
		AddRow(int64(8), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", nil).
		AddRow(int64(7), 20.0, 30.0, 5.0, int64(0), int64(0), int64(0), "OK", "SAFE", "AUTO", "2024-03-01T08:00:00Z")
	mock.ExpectQuery(mysqlLatest).WithArgs(3).WillReturnRows(rows)

	got, err := repo.Latest(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("expected only row 7, got %+v", got)
	}
	if len(warnings) != 2 || !strings.Contains(warnings[0], "skipping") {
		t.Fatalf("expected two skip warnings, got %v", warnings)
	}
}

func TestParseStoredTimestampLayouts(t *testing.T) {
	cases := []string{
		"2024-03-01 08:00:00",
		"2024-03-01 08:00:00.250",
		"2024-03-01T08:00:00",
		"2024-03-01T08:00:00+00:00",
	}
	for _, raw := range cases {
		got, err := parseStoredTimestamp(raw, time.UTC)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if got.Hour() != 8 || got.Day() != 1 {
			t.Fatalf("%q: unexpected time %s", raw, got)
		}
	}
	if _, err := parseStoredTimestamp("01/03/2024", time.UTC); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
