// Command shelfscan-api serves scan sessions, detection ingest and the UI event stream
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"shelfscan/internal/modkit/repokit"
	"shelfscan/internal/platform/config"
	"shelfscan/internal/platform/logger"
	phttp "shelfscan/internal/platform/net/http"
	"shelfscan/internal/platform/store"

	"shelfscan/internal/core/version"
	"shelfscan/internal/services/api"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fCapture  = flag.String("capture", "", "TCP line feed address for fixed scanners, e.g. :7070")
		fRegistry = flag.String("registry", "", "registry backend: memory | redis | pg")
		fQuiet    = flag.String("quiet", "", "debounce quiet period, e.g. 3s")
		fThresh   = flag.String("threshold", "", "minimum burst count to promote a code")
		fLookup   = flag.String("lookup", "", "product lookup base URL")
	)
	flag.Parse()

	// flags win over env, modules read everything through config
	mustSetEnv("SCAN_CAPTURE_ADDR", *fCapture)
	mustSetEnv("SCAN_REGISTRY_BACKEND", *fRegistry)
	mustSetEnv("SCAN_QUIET_PERIOD", *fQuiet)
	mustSetEnv("SCAN_THRESHOLD", *fThresh)
	mustSetEnv("LOOKUP_BASE_URL", *fLookup)

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	rdsCfg := root.Prefix("SERVICE_REDIS_")
	natsCfg := root.Prefix("SERVICE_NATS_")

	// bring up logging early
	l := logger.Get()
	build := version.Info()
	l.Info().Str("service", build.Service).Str("version", build.Version).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// every backend is optional, an empty URL leaves it disabled
	pgURL := pgCfg.MayString("DBURL", "")
	chURL := chCfg.MayString("DBURL", "")
	rdsURL := rdsCfg.MayString("URL", "")
	rdsAddr := rdsCfg.MayString("ADDR", "")
	natsURL := natsCfg.MayString("URL", "")

	st, err := store.Open(
		ctx,
		store.Config{
			AppName: build.Service,
			PG: store.PGConfig{
				Enabled:     pgURL != "",
				URL:         pgURL,
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled: chURL != "",
				URL:     chURL,
			},
			RDS: store.RedisConfig{
				Enabled:  rdsURL != "" || rdsAddr != "",
				URL:      rdsURL,
				Addr:     rdsAddr,
				Password: rdsCfg.MayString("PASSWORD", ""),
				DB:       rdsCfg.MayInt("DB", 0),
			},
			NATS: store.NATSConfig{
				Enabled: natsURL != "",
				URL:     natsURL,
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// fail fast when a configured backend does not answer
	repokit.MustGuard(ctx, st)

	// http server: CORE_API_ADDR, CORE_API_SHUTDOWN_GRACE
	srv := phttp.NewServer(apiCfg)

	scan := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := scan.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Error().Err(err).Msg("scan module stopped")
			stop()
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
		stop()
	}
	wg.Wait()
	l.Info().Msg("bye")
}
