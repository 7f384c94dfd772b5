// Package notify carries operational notifications (the toast surface of the
// POS frontend) out of the core services. Sinks are fire-and-forget: a sink
// failure never fails the operation that produced the notification.
package notify

import (
	"context"
	"log/slog"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Sink receives notifications emitted by services.
type Sink interface {
	Notify(ctx context.Context, kind Kind, title, message string)
}

// SlogSink writes notifications to the structured log.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink constructs a SlogSink.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Notify implements Sink.
func (s *SlogSink) Notify(ctx context.Context, kind Kind, title, message string) {
	if s == nil || s.logger == nil {
		return
	}
	attrs := []any{slog.String("kind", string(kind)), slog.String("title", title), slog.String("message", message)}
	switch kind {
	case KindError:
		s.logger.ErrorContext(ctx, "notification", attrs...)
	case KindWarning:
		s.logger.WarnContext(ctx, "notification", attrs...)
	default:
		s.logger.InfoContext(ctx, "notification", attrs...)
	}
}

// NopSink discards everything. Used in tests and in the worker when no sink
// is configured.
type NopSink struct{}

// Notify implements Sink.
func (NopSink) Notify(context.Context, Kind, string, string) {}
