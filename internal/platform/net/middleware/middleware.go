// Package middleware exposes the chi and cors middlewares the api uses, without leaking chi types to modules
package middleware

import (
	"net/http"
	"time"

	"shelfscan/internal/platform/logger"
	pstrings "shelfscan/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the net/http middleware shape
type Middleware = func(http.Handler) http.Handler

// RequestID propagates or mints X-Request-Id and copies it onto the logger scope
func RequestID() Middleware {
	scoped := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.WithRequest(r.Context(), chimw.GetReqID(r.Context()), "")))
		})
	}
	return func(next http.Handler) http.Handler { return chimw.RequestID(scoped(next)) }
}

func RealIP() Middleware                       { return chimw.RealIP }
func NoCache() Middleware                      { return chimw.NoCache }
func StripSlashes() Middleware                 { return chimw.StripSlashes }
func Timeout(d time.Duration) Middleware       { return chimw.Timeout(d) }
func Heartbeat(path string) Middleware         { return chimw.Heartbeat(path) }
func AllowContentType(ct ...string) Middleware { return chimw.AllowContentType(ct...) }

// CORSOptions are the go-chi/cors knobs the api sets; empty methods and headers get defaults
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	// Last-Event-ID lets EventSource resume across origins
	corsHeaders = []string{"Accept", "Content-Type", "Last-Event-ID", "X-Request-Id"}
)

func CORS(o CORSOptions) Middleware {
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   pstrings.IfEmpty(o.AllowedMethods, corsMethods),
		AllowedHeaders:   pstrings.IfEmpty(o.AllowedHeaders, corsHeaders),
		ExposedHeaders:   o.ExposedHeaders,
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}
