package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Logger writes single-line JSON entries of the form
// {timestamp, level, message, service, hostname, action, request_id, booking_id, trip_id, details, error}.
type Logger struct {
	log *slog.Logger
}

// New creates a structured logger for the given service writing to stdout.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter creates a structured logger writing to w.
func NewWithWriter(service string, w io.Writer) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05Z07:00"))
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})

	return &Logger{
		log: slog.New(handler).With(
			slog.String("service", service),
			slog.String("hostname", hn),
		),
	}
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.log.LogAttrs(ctx, slog.LevelDebug, strings.TrimSpace(msg), l.attrs(ctx, action, details, nil)...)
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.log.LogAttrs(ctx, slog.LevelInfo, strings.TrimSpace(msg), l.attrs(ctx, action, details, nil)...)
}

// Error writes an ERROR line and attaches a short stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	l.log.LogAttrs(ctx, slog.LevelError, strings.TrimSpace(msg), l.attrs(ctx, action, details, err)...)
}

func (l *Logger) attrs(ctx context.Context, action string, details any, err error) []slog.Attr {
	out := make([]slog.Attr, 0, 6)
	out = append(out, slog.String("action", safeAction(action)))

	if v := RequestID(ctx); v != "" {
		out = append(out, slog.String("request_id", v))
	}
	if v := stringValue(ctx, ctxKeyBookingID); v != "" {
		out = append(out, slog.String("booking_id", v))
	}
	if v := stringValue(ctx, ctxKeyTripID); v != "" {
		out = append(out, slog.String("trip_id", v))
	}
	if details != nil {
		out = append(out, slog.Any("details", details))
	}
	if err != nil {
		out = append(out, slog.Group("error",
			slog.String("msg", strings.TrimSpace(err.Error())),
			slog.String("stack", shortStack(4, 8)),
		))
	}
	return out
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "rideshare_request_id"
	ctxKeyBookingID ctxKey = "rideshare_booking_id"
	ctxKeyTripID    ctxKey = "rideshare_trip_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	return withValue(ctx, ctxKeyRequestID, reqID)
}

// WithBookingID returns a new context carrying booking_id.
func (l *Logger) WithBookingID(ctx context.Context, bookingID string) context.Context {
	return withValue(ctx, ctxKeyBookingID, bookingID)
}

// WithTripID returns a new context carrying trip_id.
func (l *Logger) WithTripID(ctx context.Context, tripID string) context.Context {
	return withValue(ctx, ctxKeyTripID, tripID)
}

// RequestID extracts request_id from ctx (if any).
func RequestID(ctx context.Context) string {
	return stringValue(ctx, ctxKeyRequestID)
}

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if strings.TrimSpace(v) == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// ----- Small utilities -----

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}

// shortStack renders at most max caller frames, skipping runtime and logger frames.
func shortStack(skip, max int) string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	count := 0
	for {
		f, more := frames.Next()
		fn := f.Function
		if strings.HasPrefix(fn, "runtime.") || strings.Contains(fn, "/logger.") {
			if !more {
				break
			}
			continue
		}
		if i := strings.LastIndex(fn, "."); i >= 0 && i+1 < len(fn) {
			fn = fn[i+1:]
		}
		fmt.Fprintf(&b, "%s %s:%d\n", fn, filepath.Base(f.File), f.Line)
		count++
		if count >= max || !more {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
