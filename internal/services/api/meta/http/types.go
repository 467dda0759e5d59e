package http

import "shelfscan/internal/core/version"

// HealthResponse answers /health
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is one backend ping; Status is ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse rolls the checks up into ok, degraded or fail
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// EngineResponse carries the consensus settings the process booted with
type EngineResponse struct {
	Threshold int               `json:"threshold"`
	QuietMs   int64             `json:"quiet_ms"`
	Registry  string            `json:"registry"`
	Capture   bool              `json:"capture"`
	Session   *EngineSession    `json:"session,omitempty"`
	Build     version.BuildInfo `json:"build"`
}

type EngineSession struct {
	Active    bool   `json:"active"`
	State     string `json:"state"`
	Tallied   int    `json:"tallied"`
	Confirmed int    `json:"confirmed"`
}
