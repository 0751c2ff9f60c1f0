package hooking

import (
	"context"
	"log/slog"
)

// A LogHook writes every event it receives into a structured logger.
type LogHook struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogHook creates a LogHook that logs at the given level. A nil logger
// falls back to the default logger.
func NewLogHook(logger *slog.Logger, level slog.Level) *LogHook {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogHook{
		logger: logger,
		level:  level,
	}
}

// Func logs the hook position together with the item and the detail.
func (h *LogHook) Func(ctx HookCtx) {
	attrs := []slog.Attr{
		slog.Any("item", ctx.Item),
	}

	if ctx.Domain != nil {
		attrs = append(attrs, slog.String("domain", ctx.Domain.Name()))
	}

	if ctx.Detail != nil {
		attrs = append(attrs, slog.Any("detail", ctx.Detail))
	}

	h.logger.LogAttrs(context.Background(), h.level, ctx.Pos.Name, attrs...)
}
