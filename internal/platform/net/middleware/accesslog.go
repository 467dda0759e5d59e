package middleware

import (
	"net/http"
	"time"

	"shelfscan/internal/platform/logger"
	pnet "shelfscan/internal/platform/net"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// AccessLogOptions configures AccessLogZerolog
type AccessLogOptions struct {
	// Slow promotes requests at or above it to warn; zero disables
	Slow time.Duration
	// Log overrides the request scoped root logger
	Log *logger.Logger
}

// AccessLogZerolog logs one line per request; 5xx at error, slow at warn
// the wrapped writer still flushes, so event streams pass through
func AccessLogZerolog(opt AccessLogOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log := accessLogger(opt, r)
			var evt *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				evt = log.Error()
			case opt.Slow > 0 && elapsed >= opt.Slow:
				evt = log.Warn()
			default:
				evt = log.Info()
			}
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				evt = evt.Str("route", rc.RoutePattern())
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Msg("request done")
		})
	}
}

func accessLogger(opt AccessLogOptions, r *http.Request) *logger.Logger {
	if opt.Log == nil {
		return logger.C(r.Context())
	}
	l := opt.Log.With().Str("request_id", pnet.RequestID(r.Context())).Logger()
	return &l
}
