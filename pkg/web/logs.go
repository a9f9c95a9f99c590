package web

import (
	"context"
	"log/slog"
)

// LogEntry is one log line on the dashboard
type LogEntry struct {
	Time      string            `json:"time"`
	Level     string            `json:"level"`
	Component string            `json:"component,omitempty"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// LogHandler returns a slog handler feeding the dashboard log buffer.
// Attach it to the process logger with log.Attach.
func (s *Server) LogHandler(level slog.Leveler) slog.Handler {
	return &logHandler{server: s, level: level}
}

type logHandler struct {
	server *Server
	level  slog.Leveler
	attrs  []slog.Attr
	group  string
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *logHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:    r.Time.Format("15:04:05.000"),
		Level:   r.Level.String(),
		Message: r.Message,
	}

	add := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Key == "component" {
			entry.Component = a.Value.String()
			return
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]string)
		}
		entry.Fields[a.Key] = a.Value.String()
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		add(a)
		return true
	})

	h.server.addLog(entry)
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}
