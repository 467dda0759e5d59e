package module

import (
	"time"

	"shelfscan/internal/platform/config"
	"shelfscan/internal/services/scan/repo"
)

// Registry backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendPG     = "pg"
)

// Options controls the scan controller, its collaborators and the lookup client
type Options struct {
	Quiet         time.Duration // debounce quiet period
	Threshold     int           // minimum burst count to promote
	InboxSize     int
	LookupTimeout time.Duration // per resolution, includes client retries

	Backend     string // memory | redis | pg
	RegistryKey string

	ProductTTL  time.Duration
	CaptureAddr string // TCP line feed, empty disables
	Audit       bool   // write decisions to clickhouse when available
	AuditTable  string
	NATSMirror  bool // mirror UI events to NATS when connected
	NATSSubject string

	// Product lookup client
	LookupBaseURL    string
	LookupToken      string
	LookupTimeoutReq time.Duration
	LookupRetries    int
	LookupRetryBase  time.Duration
}

// FromConfig reads SCAN_* and LOOKUP_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("SCAN_")
	lc := cfg.Prefix("LOOKUP_")
	return Options{
		Quiet:         sc.MayDuration("QUIET_PERIOD", 3*time.Second),
		Threshold:     sc.MayInt("THRESHOLD", 5),
		InboxSize:     sc.MayInt("INBOX_SIZE", 1024),
		LookupTimeout: sc.MayDuration("LOOKUP_TIMEOUT", 15*time.Second),

		Backend:     sc.MayEnum("REGISTRY_BACKEND", BackendMemory, BackendMemory, BackendRedis, BackendPG),
		RegistryKey: sc.MayString("REGISTRY_KEY", repo.DefaultKey),

		ProductTTL:  sc.MayDuration("PRODUCT_CACHE_TTL", 12*time.Hour),
		CaptureAddr: sc.MayString("CAPTURE_ADDR", ""),
		Audit:       sc.MayBool("AUDIT", true),
		AuditTable:  sc.MayString("AUDIT_TABLE", repo.DefaultAuditTable),
		NATSMirror:  sc.MayBool("NATS_MIRROR", true),
		NATSSubject: sc.MayString("NATS_SUBJECT", "shelfscan.events"),

		LookupBaseURL:    lc.MayString("BASE_URL", ""),
		LookupToken:      lc.MayString("TOKEN", ""),
		LookupTimeoutReq: lc.MayDuration("TIMEOUT", 5*time.Second),
		LookupRetries:    lc.MayInt("MAX_RETRIES", 2),
		LookupRetryBase:  lc.MayDuration("RETRY_BASE", 250*time.Millisecond),
	}
}
