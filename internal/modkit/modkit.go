package modkit

import (
	"net/http"

	"shelfscan/internal/modkit/module"
	pstrings "shelfscan/internal/platform/strings"
)

// Module is what api.Mount composes
type Module = module.Module

// Built is a module's resolved options
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
}

// Option sets one field of Built; later options win, middlewares accumulate
type Option func(*Built)

func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix normalizes to "/x" with no trailing slash and panics on an empty prefix
func WithPrefix(prefix string) Option {
	p := pstrings.MustPrefix(prefix)
	return func(b *Built) { b.Prefix = p }
}

func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands a module the collaborator ports it consumes; the type is the module's own
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Build applies opts over defaults, which callers list first
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}
