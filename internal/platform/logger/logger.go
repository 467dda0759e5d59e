// Package logger owns the process root zerolog logger and its request scoped children
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"shelfscan/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is zerolog's logger under the project name
type Logger = zerolog.Logger

// Options configures New
type Options struct {
	Level  string // trace..panic, unknown falls back to debug
	Format string // console or json
	Writer io.Writer
	Caller bool
	// SampleEvery > 1 keeps one event in N
	SampleEvery int
	// Fields are attached to every event, service and component included
	Fields map[string]string
}

// FromEnv reads LOG_* through the raw reader, which never logs
func FromEnv() Options {
	env := raw.New().Prefix("LOG_")
	o := Options{
		Level:       env.Get("LEVEL", "debug"),
		Format:      strings.ToLower(env.Get("FORMAT", "console")),
		Caller:      env.GetBool("CALLER", false),
		SampleEvery: env.GetInt("SAMPLE_EVERY", 0),
		Fields:      map[string]string{},
	}
	for _, k := range []string{"service", "component"} {
		if v := env.Get(strings.ToUpper(k), ""); v != "" {
			o.Fields[k] = v
		}
	}
	return o
}

// ParseLevel maps a level name; "warning" is accepted and anything unknown is debug
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

// New builds a logger from o without touching the root
func New(o Options) Logger {
	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	if o.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	b := zerolog.New(w).Level(ParseLevel(o.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok {
		b = b.Str("go_version", bi.GoVersion)
	}
	for k, v := range o.Fields {
		b = b.Str(k, v)
	}
	if o.Caller {
		b = b.Caller()
	}
	l := b.Logger()
	if o.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(o.SampleEvery)})
	}
	return l
}

var (
	rootOnce sync.Once
	root     Logger
)

// Init installs the root logger; only the first call (or first Get) wins
func Init(o Options) {
	rootOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		root = New(o)
	})
}

// Get returns the root, building it from the environment on first use
func Get() *Logger {
	Init(FromEnv())
	return &root
}

// Named is a root child tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}

type scopeKey struct{}

// scope is the request correlation carried on a context
type scope struct {
	requestID string
	sessionID string
}

// WithRequest records correlation ids on ctx; empty ids keep what ctx already has
func WithRequest(ctx context.Context, requestID, sessionID string) context.Context {
	s, _ := ctx.Value(scopeKey{}).(scope)
	if requestID != "" {
		s.requestID = requestID
	}
	if sessionID != "" {
		s.sessionID = sessionID
	}
	if s == (scope{}) {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

// C is a root child carrying the correlation ids on ctx
func C(ctx context.Context) *Logger {
	s, _ := ctx.Value(scopeKey{}).(scope)
	b := Get().With()
	if s.requestID != "" {
		b = b.Str("request_id", s.requestID)
	}
	if s.sessionID != "" {
		b = b.Str("session_id", s.sessionID)
	}
	l := b.Logger()
	return &l
}
