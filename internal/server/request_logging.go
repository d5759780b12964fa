package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusRecorder captures the response status and body size for the
// metrics and logging middlewares.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func recorderFor(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w}
}

// withRequestLogging logs one line per API request. Health probes, metric
// scrapes and media downloads are not logged.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLoggedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := recorderFor(w)
		next.ServeHTTP(rec, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("route", routeFromContext(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.Status()),
			slog.Int64("bytes", rec.bytes),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("client_ip", requestClientIP(r)),
		}
		if id := requestIDFromContext(r.Context()); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}

		level := slog.LevelDebug
		switch {
		case rec.Status() >= 500:
			level = slog.LevelError
		case rec.Status() == http.StatusTooManyRequests:
			level = slog.LevelWarn
		}
		s.log().LogAttrs(r.Context(), level, "request complete", attrs...)
	})
}

func isLoggedPath(path string) bool {
	switch {
	case path == "/health", path == "/metrics":
		return false
	case strings.HasPrefix(path, "/media/"):
		return false
	}
	return true
}
