package audit

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/outreach/internal/infrastructure/logger"
)

// Logger writes security-relevant events as structured log lines
type Logger struct {
	logger *slog.Logger
}

func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{logger: l.With(slog.String("log_type", "audit"))}
}

// LogAction records who did what to which resource and how it ended
func (al *Logger) LogAction(ctx context.Context, actor, action, resource, resourceID, status, details string) {
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor", actor),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", logger.RequestID(ctx)),
	)
}

// LogLogin records a login attempt
func (al *Logger) LogLogin(ctx context.Context, actor, status, details string) {
	al.LogAction(ctx, actor, "login", "session", "", status, details)
}

// LogExport records a CSV export and the scope it covered
func (al *Logger) LogExport(ctx context.Context, actor, filename string, rows int, status string) {
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("action", "export"),
		slog.String("resource", "contractors"),
		slog.String("actor", actor),
		slog.String("filename", filename),
		slog.Int("rows", rows),
		slog.String("status", status),
		slog.String("request_id", logger.RequestID(ctx)),
	)
}

// LogDenied records a rejected request
func (al *Logger) LogDenied(ctx context.Context, actor, reason string) {
	al.LogAction(ctx, actor, "access_denied", "api", "", "denied", reason)
}
