package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/logger"
	pnet "shelfscan/internal/platform/net"
	phttp "shelfscan/internal/platform/net/http"
)

// RecoverJSON turns a handler panic into a 500 envelope with ErrorCodePanic
// http.ErrAbortHandler is re-raised so net/http can abort the connection
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if id := pnet.RequestID(r.Context()); id != "" {
				w.Header().Set("X-Request-Id", id)
			}
			phttp.RespondError(w, r, perr.PanicErrf("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
