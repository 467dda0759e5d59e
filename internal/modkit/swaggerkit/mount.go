// Package swaggerkit serves an OpenAPI document and Swagger UI for the mounted modules
package swaggerkit

import (
	"net/http"

	phttp "shelfscan/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mount serves /api/docs when enabled
func Mount(r phttp.Router, enabled bool, info Info, groups ...Group) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(Document(info, groups...)))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("shelfscan"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
