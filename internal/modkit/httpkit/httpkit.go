// Package httpkit is what modules mount routes with, so they never import the platform http package
package httpkit

import (
	"net/http"
	"strings"

	phttp "shelfscan/internal/platform/net/http"
)

type (
	Handler  = phttp.Handler
	Router   = phttp.Router
	Response = phttp.Response
)

// Call adapts fn; returning a Response passes it through untouched
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if res, ok := out.(phttp.Response); ok {
			return res
		}
		return phttp.OK(out)
	})
}

func Get(r Router, path string, fn func(*http.Request) (any, error))  { r.Get(path, Call(fn)) }
func Post(r Router, path string, fn func(*http.Request) (any, error)) { r.Post(path, Call(fn)) }

// PostBound decodes and validates a T body before fn runs
func PostBound[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(fn))
}

// WriteError is for handlers that own the writer, such as a stream before it starts
func WriteError(w http.ResponseWriter, r *http.Request, err error) { phttp.RespondError(w, r, err) }

// MountAPI scopes mount under /api/{version} with mw applied to that scope only
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/"+strings.Trim(version, "/"), func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}
