package store

import "time"

// Config selects and configures the backends Open connects
type Config struct {
	AppName string

	PG   PGConfig
	CH   CHConfig
	NATS NATSConfig
	RDS  RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// startup ping, zero values mean 6 tries and 5s per try
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string
}

// NATSConfig configures nats connectivity
type NATSConfig struct {
	Enabled bool
	URL     string
}

// RedisConfig configures redis connectivity
// URL (redis://...) wins over Addr
type RedisConfig struct {
	Enabled  bool
	URL      string
	Addr     string
	Password string
	DB       int
}
