package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// formatterHandler adapts a LogFormatter into a slog.Handler so the
// formatters in this package can back a Logger.
type formatterHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Level
	formatter LogFormatter
	attrs     []slog.Attr
}

// NewFormatterHandler returns a slog.Handler that renders each record
// through f and writes one line per record to w.
func NewFormatterHandler(w io.Writer, level slog.Level, f LogFormatter) slog.Handler {
	return &formatterHandler{
		mu:        &sync.Mutex{},
		w:         w,
		level:     level,
		formatter: f,
	}
}

func (h *formatterHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *formatterHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	line := h.formatter.Format(LogEntry{
		Timestamp: r.Time,
		Level:     levelFromSlog(r.Level),
		Message:   r.Message,
		Fields:    fields,
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *formatterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup returns the handler unchanged: attribute keys stay flat.
func (h *formatterHandler) WithGroup(string) slog.Handler {
	return h
}

// levelFromSlog maps a slog.Level onto this package's LogLevel buckets.
func levelFromSlog(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DEBUG
	case l < slog.LevelWarn:
		return INFO
	case l < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}
