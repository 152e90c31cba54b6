package config

// Config holds all application configuration loaded from environment
// variables, parsed with github.com/caarlos0/env.
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8085"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"codequest-progression"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration. An empty REDIS_HOST selects the in-memory
	// store, meant for local development only.
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`
	RedisKeyPrefix    string `env:"REDIS_KEY_PREFIX" envDefault:"codequest:progression:"`

	// Engine tuning file
	TuningPath string `env:"TUNING_PATH" envDefault:"config/engine.yaml"`

	// Telemetry configuration
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OtelEndpoint    string `env:"OTEL_EXPORTER_ZIPKIN_ENDPOINT" envDefault:"http://localhost:9411/api/v2/spans"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"codequest-progression"`
}
