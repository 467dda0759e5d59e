package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"shelfscan/internal/platform/config"
	"shelfscan/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server is a chi mux behind an http.Server that drains on context cancel
type Server struct {
	mux   *chi.Mux
	srv   *stdhttp.Server
	grace time.Duration
}

// NewServer reads ADDR (default :4000), READ_HEADER_TIMEOUT and SHUTDOWN_GRACE from cfg
func NewServer(cfg config.Conf) *Server {
	m := chi.NewRouter()
	return &Server{
		mux: m,
		srv: &stdhttp.Server{
			Addr:              cfg.MayString("ADDR", ":4000"),
			Handler:           m,
			ReadHeaderTimeout: cfg.MayDuration("READ_HEADER_TIMEOUT", 10*time.Second),
		},
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
	}
}

func (s *Server) Router() Router           { return AdaptChi(s.mux) }
func (s *Server) Handler() stdhttp.Handler { return s.mux }
func (s *Server) Addr() string             { return s.srv.Addr }

// Run listens on Addr and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln; once ctx is done in-flight requests get the shutdown grace to finish
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.Named("http")
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Dur("grace", s.grace).Msg("http drain cut short")
		_ = s.srv.Close()
	}
	if err := <-errc; !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
