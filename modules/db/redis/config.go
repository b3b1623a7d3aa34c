package redis

import "time"

// RedisConfig contains configuration for constructing a rueidis.Client.
//
// URL is a standard Redis URI, for example:
//
//   - Single:  redis://:password@localhost:6379/0
//   - TLS:     rediss://:password@my-redis.example.com:6379/0
//   - Cluster: redis://:password@host1:6379/0?addr=host2:6379&addr=host3:6379
//
// Cluster vs single vs sentinel is auto-detected by rueidis based on InitAddress and options.
type RedisConfig struct {
	// Required: Redis connection URL (redis:// or rediss://).
	URL string `env:"URL" envDefault:"redis://:redis@localhost:6379/0"`

	// Optional: client name visible in CLIENT LIST, etc.
	ClientName string `env:"CLIENT_NAME"`

	// SkipTLSVerify disables TLS certificate verification. Only use this in trusted
	// environments (e.g. some AWS ElastiCache setups with non-standard certs).
	SkipTLSVerify bool `env:"SKIP_TLS_VERIFY"`

	// RequireTLS enforces the use of rediss://.
	RequireTLS bool `env:"REQUIRE_TLS"`

	// Tuning flags, zero values keep rueidis defaults.
	DisableRetry     bool          `env:"DISABLE_RETRY"`
	DisableCache     bool          `env:"DISABLE_CACHE" envDefault:"true"`
	AlwaysPipelining bool          `env:"ALWAYS_PIPELINING"`
	ConnWriteTimeout time.Duration `env:"CONN_WRITE_TIMEOUT"`

	// Enable OpenTelemetry integration via rueidisotel.
	EnableOtel bool `env:"ENABLE_OTEL"`

	// Log every command that fails with something other than a nil reply.
	LogErrors bool `env:"LOG_ERRORS" envDefault:"true"`
}
