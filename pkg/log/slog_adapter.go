package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors events to an slog.Logger at Debug level. Error events
// are logged at Warn.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Port != "" {
		attrs = append(attrs, slog.String("port", event.Port))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}

	switch {
	case event.Record != nil:
		attrs = append(attrs,
			slog.String("record", event.Record.Name),
			slog.String("kind", event.Record.Kind),
			slog.String("template", event.Record.Template),
			slog.String("param", event.Record.ParamName),
		)
	case event.Miss != nil:
		attrs = append(attrs, slog.String("segment", event.Miss.Segment))
	case event.Degrade != nil:
		attrs = append(attrs,
			slog.Int("entries", event.Degrade.Entries),
			slog.Int("max", event.Degrade.Max),
			slog.String("kind", event.Degrade.Kind),
		)
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("size", event.Frame.Size),
			slog.Uint64("frame", uint64(event.Frame.FrameNumber)),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.IO != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("direction", event.IO.Direction.String()),
			slog.String("function", event.IO.Function),
			slog.String("param", event.IO.ParamName),
			slog.String("error", event.IO.Message),
		)
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error", event.Error.Message),
			slog.String("context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "driver event", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
