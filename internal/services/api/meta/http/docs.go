package http

import "shelfscan/internal/modkit/swaggerkit"

// Docs describes the meta routes
var Docs = []swaggerkit.Op{
	{Method: "GET", Path: "/health", Summary: "Liveness"},
	{Method: "GET", Path: "/ready", Summary: "Readiness with backend pings"},
	{Method: "GET", Path: "/version", Summary: "Build info"},
	{Method: "GET", Path: "/service", Summary: "Service name and uptime"},
	{Method: "GET", Path: "/engine", Summary: "Consensus settings and live session"},
}
