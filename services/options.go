// Package services implements the feed engagement core: post lifecycle, the
// like toggle, comment append, feed paging and counter reconciliation.
package services

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a service.
type Option func(*options)

// WithLogger sets the structured logger. Services discard logs by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the timestamp source for created rows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    defaultNow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Postgres keeps microseconds; truncating here keeps cursors built from
// in-memory rows identical to ones built from stored rows.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// resultLabel maps an operation error to its metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAlreadyLiked):
		return "already_liked"
	case errors.Is(err, ErrUpload):
		return "upload_error"
	default:
		return "error"
	}
}
