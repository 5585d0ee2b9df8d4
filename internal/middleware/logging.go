package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseTracker はhttp.ResponseWriterをラップし、
// ステータスコードとレスポンスサイズを記録する。
type responseTracker struct {
	http.ResponseWriter
	status int
	bytes  int
	wrote  bool
}

func (t *responseTracker) WriteHeader(code int) {
	if !t.wrote {
		t.status = code
		t.wrote = true
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTracker) Write(b []byte) (int, error) {
	if !t.wrote {
		t.status = http.StatusOK
		t.wrote = true
	}
	n, err := t.ResponseWriter.Write(b)
	t.bytes += n
	return n, err
}

// levelForStatus はHTTPステータスコードに応じたログレベルを返す。
// 5xxはError、4xxはWarn、それ以外はInfo。
func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLoggingMiddleware はリクエストごとにJSON構造化ログを1行出力する
// ミドルウェアを返す。method、path、status、bytes、duration_ms、
// request_idを含む。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tracker := &responseTracker{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(tracker, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", tracker.status),
				slog.Int("bytes", tracker.bytes),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			}
			if requestID := RequestIDFromContext(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			logger.LogAttrs(r.Context(), levelForStatus(tracker.status), "http_request", attrs...)
		}
		return http.HandlerFunc(fn)
	}
}
