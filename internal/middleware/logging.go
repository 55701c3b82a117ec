package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var sugar = zap.NewNop().Sugar()

// SetLogger передаёт логгер в middleware.
func SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		sugar = l
	}
}

// statusRecorder запоминает код ответа и число отданных байт.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// WithLogging пишет одну запись на запрос. Ответы 5xx идут уровнем error,
// 4xx — warn, остальные — info. Тело запроса и заголовки авторизации не логируются.
func WithLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(rec, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"size", rec.size,
			"duration", time.Since(start),
		}
		if id := chimw.GetReqID(r.Context()); id != "" {
			fields = append(fields, "request_id", id)
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			sugar.Errorw("request", fields...)
		case rec.status >= http.StatusBadRequest:
			sugar.Warnw("request", fields...)
		default:
			sugar.Infow("request", fields...)
		}
	})
}
