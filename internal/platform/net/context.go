// Package net carries the request id between chi and the rest of the platform
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestID is the id chi's RequestID middleware stored, or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithRequest stores id where RequestID finds it; handlers driven outside chi use it
func WithRequest(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}
