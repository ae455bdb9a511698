package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTaskID is the standardized structured logging key for task identifiers.
	FieldTaskID = "task_id"
	// FieldScriptID is the standardized structured logging key for script identifiers.
	FieldScriptID = "script_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldBatch is the standardized structured logging key for batch indices.
	FieldBatch = "batch"
	// FieldEventType tags lifecycle events (stage_start, stage_complete, stage_failure).
	FieldEventType = "event_type"
)

type contextKey struct{ name string }

var (
	taskIDKey   = contextKey{"task_id"}
	scriptIDKey = contextKey{"script_id"}
	stageKey    = contextKey{"stage"}
)

// WithTask annotates the context with task and script identifiers.
func WithTask(ctx context.Context, taskID, scriptID string) context.Context {
	ctx = context.WithValue(ctx, taskIDKey, taskID)
	return context.WithValue(ctx, scriptIDKey, scriptID)
}

// WithStage annotates the context with the active pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var attrs []Attr
	if v, ok := ctx.Value(taskIDKey).(string); ok && v != "" {
		attrs = append(attrs, String(FieldTaskID, v))
	}
	if v, ok := ctx.Value(scriptIDKey).(string); ok && v != "" {
		attrs = append(attrs, String(FieldScriptID, v))
	}
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		attrs = append(attrs, String(FieldStage, v))
	}
	return attrs
}

// WithContext returns a logger pre-populated with the context's standard fields.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
