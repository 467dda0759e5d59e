package http

import "shelfscan/internal/modkit/swaggerkit"

// Docs describes the routes Register mounts, paths relative to the module prefix
var Docs = []swaggerkit.Op{
	{Method: "POST", Path: "/session/start", Summary: "Start a scan session; returns the open one when already active"},
	{Method: "POST", Path: "/session/stop", Summary: "Stop the scan session"},
	{Method: "POST", Path: "/session/reset", Summary: "Clear tally, timer and in-flight lookup; the registry is kept"},
	{Method: "GET", Path: "/session", Summary: "Current session state"},
	{Method: "POST", Path: "/detections", Summary: "Submit decoded detections; malformed values count as rejected", Body: "DetectionBatch"},
	{Method: "GET", Path: "/confirmed", Summary: "Confirmed codes with cached products"},
	{Method: "GET", Path: "/events", Summary: "UI events as server sent events, named by kind", Stream: true},
}
