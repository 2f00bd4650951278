// Package logger provides structured logging for the intake service and the scheduler.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

// RequestIDKey is the context key the request logger stores the request id under.
const RequestIDKey contextKey = "request_id"

// Logger wraps slog.Logger with the event helpers used across the service.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger that writes to w instead of stdout. Development
// gets debug level text output; every other env gets JSON at info level.
func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns a logger carrying the request id found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		return l.With(slog.String("request_id", requestID))
	}
	return l
}

// With returns a logger that adds attrs to every record.
func (l *Logger) With(attrs ...any) *Logger {
	return &Logger{Logger: l.Logger.With(attrs...)}
}

// WithLead scopes the logger to a single lead.
func (l *Logger) WithLead(leadID any) *Logger {
	return l.With(slog.Any("lead_id", leadID))
}

// HTTPRequest logs a served request.
func (l *Logger) HTTPRequest(method, path string, status int, latency time.Duration, clientIP string) {
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	l.Log(context.Background(), level, "http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", float64(latency.Microseconds())/1000),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors together with the entity that failed to persist.
func (l *Logger) DatabaseError(operation string, err error, entity any) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
		slog.Any("entity", entity),
	)
}

// SubmissionRejected logs an inbound submission that was dropped before processing.
func (l *Logger) SubmissionRejected(kind, reason string, attrs ...any) {
	args := append([]any{
		slog.String("kind", kind),
		slog.String("reason", reason),
	}, attrs...)
	l.Warn("submission_rejected", args...)
}

// PipelineOutcome logs the branch the lead entry pipeline took.
func (l *Logger) PipelineOutcome(outcome string, attrs ...any) {
	args := append([]any{slog.String("outcome", outcome)}, attrs...)
	l.Info("lead_pipeline_outcome", args...)
}

// IntegrityAnomaly logs stored data that violates a domain invariant.
func (l *Logger) IntegrityAnomaly(anomaly string, attrs ...any) {
	args := append([]any{slog.String("anomaly", anomaly)}, attrs...)
	l.Error("data_integrity_anomaly", args...)
}

// FollowUpSent logs a delivered follow-up and the schedule that replaced it.
func (l *Logger) FollowUpSent(leadID any, channel, stage string, next time.Time) {
	l.Info("follow_up_sent",
		slog.Any("lead_id", leadID),
		slog.String("channel", channel),
		slog.String("stage", stage),
		slog.Time("next_follow_up", next),
	)
}

// TaskSkipped logs a queued task that was acknowledged without doing any work.
func (l *Logger) TaskSkipped(taskType, reason string, attrs ...any) {
	args := append([]any{
		slog.String("task", taskType),
		slog.String("reason", reason),
	}, attrs...)
	l.Debug("task_skipped", args...)
}

// RateLimitExceeded logs a throttled client.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
