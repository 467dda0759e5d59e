package httpkit

import (
	"net/http"
	"time"

	"shelfscan/internal/platform/net/middleware"
)

// StreamStack is the baseline middleware for the api
// it leaves out compression and a global timeout so server-sent events can flush
// modules that need a deadline add middleware.Timeout on their own route group
func StreamStack(cors middleware.CORSOptions) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),
		middleware.CORS(cors),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
	}
}
