package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/babymonitor-readings/internal/model"
)

// readingColumns is the fixed projection of the baby_monitor table.
var readingColumns = []string{
	"id", "temp", "hum", "dist", "relay", "motion",
	"vibrate", "status", "safety", "mode", "timestamp",
}

// ReadingRepo runs the read-only queries against the readings log.
type ReadingRepo struct {
	db      *sql.DB
	dialect Dialect
	loc     *time.Location
	latestQ string

	// SkipMalformed drops rows whose timestamp does not parse instead of
	// failing the whole query.  Skipped rows are reported through Warnf.
	SkipMalformed bool
	Warnf         func(format string, args ...any)
}

// NewReadingRepo builds a repository for table, which must be a plain
// identifier (config validates it).  Text timestamps are read in loc.
func NewReadingRepo(db *sql.DB, dialect Dialect, table string, loc *time.Location) *ReadingRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &ReadingRepo{
		db:      db,
		dialect: dialect,
		loc:     loc,
		latestQ: latestQuery(dialect, table),
		Warnf:   log.Printf,
	}
}

func latestQuery(d Dialect, table string) string {
	cols := make([]string, len(readingColumns))
	for i, c := range readingColumns {
		cols[i] = d.Quote(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC LIMIT %s",
		strings.Join(cols, ", "), d.Quote(table), d.Quote("id"), d.Placeholder(1))
}

// Latest returns up to limit readings, newest first.  The limit is bound as
// a query argument.
func (r *ReadingRepo) Latest(ctx context.Context, limit int) ([]model.Reading, error) {
	rows, err := r.db.QueryContext(ctx, r.latestQ, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	out := make([]model.Reading, 0, min(max(limit, 0), 256))
	for rows.Next() {
		var (
			rd              model.Reading
			temp, hum, dist sql.NullFloat64
			ts              storedTime
		)
		if err := rows.Scan(
			&rd.ID,
			&temp,
			&hum,
			&dist,
			&rd.Relay,
			&rd.Motion,
			&rd.Vibrate,
			&rd.Status,
			&rd.Safety,
			&rd.Mode,
			&ts,
		); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrQueryFailed, err)
		}
		rd.Temp = floatPtr(temp)
		rd.Hum = floatPtr(hum)
		rd.Dist = floatPtr(dist)

		t, err := ts.resolve(r.loc)
		if err != nil {
			merr := &MalformedReadingError{ID: rd.ID, Raw: ts.String(), Err: err}
			if r.SkipMalformed {
				r.warnf("readings: skipping row: %v", merr)
				continue
			}
			return nil, merr
		}
		rd.Timestamp = t
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return out, nil
}

// PingContext reports whether the database is reachable.
func (r *ReadingRepo) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ReadingRepo) warnf(format string, args ...any) {
	if r.Warnf != nil {
		r.Warnf(format, args...)
	}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
