package logging

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Setup initializes the default slog logger with JSON output to w.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

type contextKey string

const loggerKey contextKey = "logger"

// WithLogger returns a context with the given logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// RequestFields holds all fields logged per request.
type RequestFields struct {
	Method  string
	Path    string
	Status  int
	Bytes   int64
	TotalMs int64
}

// LogRequest logs a completed request with structured fields.
// 5xx logs at error, 4xx at warn, everything else at info.
func LogRequest(logger *slog.Logger, f RequestFields) {
	level := slog.LevelInfo
	if f.Status >= 500 {
		level = slog.LevelError
	} else if f.Status >= 400 {
		level = slog.LevelWarn
	}

	logger.Log(context.Background(), level, "request",
		"method", f.Method,
		"path", f.Path,
		"status", f.Status,
		"bytes", f.Bytes,
		"total_ms", f.TotalMs,
	)
}

// ByteCountingWriter wraps http.ResponseWriter to capture status code and bytes written.
type ByteCountingWriter struct {
	http.ResponseWriter
	StatusCode int
	Bytes      int64
}

// WriteHeader captures the status code.
func (w *ByteCountingWriter) WriteHeader(code int) {
	w.StatusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Write captures bytes written.
func (w *ByteCountingWriter) Write(b []byte) (int, error) {
	if w.StatusCode == 0 {
		w.StatusCode = 200
	}
	n, err := w.ResponseWriter.Write(b)
	w.Bytes += int64(n)
	return n, err
}

// Middleware returns an HTTP middleware that attaches a request-scoped
// logger to the context and logs each request with timing.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &ByteCountingWriter{ResponseWriter: w}

			reqLogger := logger.With("method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(wrapped, r.WithContext(WithLogger(r.Context(), reqLogger)))

			if wrapped.StatusCode == 0 {
				wrapped.StatusCode = 200
			}

			LogRequest(logger, RequestFields{
				Method:  r.Method,
				Path:    r.URL.Path,
				Status:  wrapped.StatusCode,
				Bytes:   wrapped.Bytes,
				TotalMs: time.Since(start).Milliseconds(),
			})
		})
	}
}
