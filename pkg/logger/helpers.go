package logger

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a catalog HTTP request outcome
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.WarnWithFields("HTTP request client error", fields)
	}
}

// LogEntityGenerated logs the completion line for one entity
func LogEntityGenerated(l Logger, id int, name string, copies int) {
	l.InfoWithFields(fmt.Sprintf("Generated metadata for entity %d", id), map[string]interface{}{
		"entity_id": id,
		"name":      name,
		"copies":    copies,
	})
}

// LogEntitySkipped logs the skip notice for one entity
func LogEntitySkipped(l Logger, id int, statusCode int, err error) {
	fields := map[string]interface{}{
		"entity_id": id,
	}
	if statusCode != 0 {
		fields["status_code"] = statusCode
	}
	l.WithError(err).WarnWithFields(fmt.Sprintf("Skipping entity %d due to an error", id), fields)
}

// LogRunSummary logs the completion line for a whole run
func LogRunSummary(l Logger, processed, skipped, written int, elapsed time.Duration) {
	l.InfoWithFields("Metadata generation complete", map[string]interface{}{
		"processed":  processed,
		"skipped":    skipped,
		"written":    written,
		"elapsed_ms": elapsed.Milliseconds(),
	})
}

// LogProgress logs how far the run has come
func LogProgress(l Logger, processed, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(processed) / float64(total) * 100
	}

	l.DebugWithFields("Run progress", map[string]interface{}{
		"processed":  processed,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", settings)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
