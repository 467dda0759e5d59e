// Package api provides the HTTP API for the application
package api

import (
	"time"

	"shelfscan/internal/core/version"
	"shelfscan/internal/platform/config"
	"shelfscan/internal/platform/logger"
	phttp "shelfscan/internal/platform/net/http"
	"shelfscan/internal/platform/net/middleware"
	"shelfscan/internal/platform/store"

	"shelfscan/internal/modkit"
	"shelfscan/internal/modkit/httpkit"
	"shelfscan/internal/modkit/module"
	"shelfscan/internal/modkit/swaggerkit"

	metahttp "shelfscan/internal/services/api/meta/http"
	metamod "shelfscan/internal/services/api/meta/module"
	scanhttp "shelfscan/internal/services/scan/http"
	scanmod "shelfscan/internal/services/scan/module"
)

// metaTimeout caps meta requests, readiness pings included
const metaTimeout = 5 * time.Second

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
// the returned scan module owns the session controller, callers must Run it
func Mount(r phttp.Router, opt Options) *scanmod.Module {
	// shared deps for modules
	deps := modkit.Deps{Cfg: opt.Config}.FromStore(opt.Store)
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	scanOpts := scanmod.FromConfig(deps.Cfg)
	scan := scanmod.New(deps, scanOpts)

	meta := metamod.New(deps, modkit.WithMiddlewares(middleware.Timeout(metaTimeout)), modkit.WithPorts(metamod.Ports{
		Engine: metahttp.EngineResponse{
			Threshold: scanOpts.Threshold,
			QuietMs:   scanOpts.Quiet.Milliseconds(),
			Registry:  scan.Backend(),
			Capture:   scanOpts.CaptureAddr != "",
		},
	}))

	mods := []module.Module{meta, scan}

	// the scan event stream is long lived, so the stream stack skips the write timeout
	cors := middleware.CORSOptions{
		AllowedOrigins: opt.Config.Prefix("CORE_API_").MayCSV("CORS_ORIGINS", []string{"*"}),
	}
	httpkit.MountAPI(r, "v1", httpkit.StreamStack(cors), func(api httpkit.Router) {
		build := version.Info()
		swaggerkit.Mount(r, opt.EnableSwagger, swaggerkit.Info{Title: build.Service, Version: build.Version},
			swaggerkit.Group{Tag: "meta", Prefix: "/api/v1/meta", Ops: metahttp.Docs},
			swaggerkit.Group{Tag: "scan", Prefix: "/api/v1/scan", Ops: scanhttp.Docs},
		)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})

	return scan
}
