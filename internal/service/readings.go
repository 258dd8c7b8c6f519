// Package service implements the recent-readings operation on top of the
// repository: limit contract, query timeout and chronological ordering.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/iliyamo/babymonitor-readings/internal/model"
)

// ErrInvalidLimit is returned for negative limits and, by the HTTP layer, for
// limits that are not base-10 integers.  Handlers translate it into a 400.
var ErrInvalidLimit = errors.New("limit must be a non-negative integer")

// ReadingStore is the storage contract the service depends on.  Latest must
// return at most limit readings ordered newest first.
type ReadingStore interface {
	Latest(ctx context.Context, limit int) ([]model.Reading, error)
}

// Options tune the limit contract.
type Options struct {
	DefaultLimit int           // used when the caller passes NoLimit
	MaxLimit     int           // larger limits are clamped
	QueryTimeout time.Duration // zero disables the extra deadline
}

// NoLimit asks for the configured default.
const NoLimit = -1

// ReadingService answers GetRecentReadings.
type ReadingService struct {
	store ReadingStore
	opts  Options
}

// NewReadingService wires a store with its options.  A non-positive MaxLimit
// leaves limits unbounded.
func NewReadingService(store ReadingStore, opts Options) *ReadingService {
	return &ReadingService{store: store, opts: opts}
}

// GetRecentReadings returns the latest limit readings ordered oldest first.
// NoLimit selects the default; other negative values are rejected.
func (s *ReadingService) GetRecentReadings(ctx context.Context, limit int) ([]model.Reading, error) {
	n, err := s.effectiveLimit(limit)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []model.Reading{}, nil
	}

	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}

	readings, err := s.store.Latest(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("latest %d readings: %w", n, err)
	}
	if readings == nil {
		readings = []model.Reading{}
	}
	// newest-first from storage, oldest-first to the caller
	slices.Reverse(readings)
	return readings, nil
}

func (s *ReadingService) effectiveLimit(limit int) (int, error) {
	switch {
	case limit == NoLimit:
		limit = s.opts.DefaultLimit
	case limit < 0:
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidLimit, limit)
	}
	if s.opts.MaxLimit > 0 && limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	return limit, nil
}
