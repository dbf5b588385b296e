package domain

import "time"

// Config holds the complete GridPay configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines feature availability
	Tier Tier `json:"tier"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Processing pipeline settings
	Process ProcessConfig `json:"process"`

	// Decision table source
	Table TableConfig `json:"table"`

	// Vision extraction settings
	Extract ExtractConfig `json:"extract"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// ProcessConfig holds batch processing settings.
type ProcessConfig struct {
	// MaxWorkers bounds per-batch record parallelism.
	MaxWorkers int `json:"maxWorkers"`

	// ResultTTL is how long processed batches stay exportable, in seconds.
	ResultTTL int `json:"resultTTL"`
}

// TableConfig holds the decision table source settings.
type TableConfig struct {
	// File is an optional YAML/JSON table spec path. When empty the
	// active table comes from the repository, falling back to the
	// built-in grid.
	File string `json:"file"`
}

// ExtractConfig holds vision extraction settings.
type ExtractConfig struct {
	// Provider is "openai" or empty to disable upload processing.
	Provider string `json:"provider"`

	APIKey  string `json:"-"`
	Model   string `json:"model"`
	BaseURL string `json:"baseUrl,omitempty"`

	// Rate limiting for extraction calls
	RequestsPerSec float64 `json:"requestsPerSec"`
	Burst          int     `json:"burst"`

	// Request bounds
	MaxTokens      int `json:"maxTokens"`
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp, jaeger
	Endpoint     string `json:"endpoint"`
}

// Tier represents the product tier.
type Tier string

const (
	// TierCommunity is the free tier with SQLite + channels
	TierCommunity Tier = "community"

	// TierPro is the paid tier with PostgreSQL + NATS + Redis
	TierPro Tier = "pro"

	// TierEnterprise includes multi-node, SSO, etc.
	TierEnterprise Tier = "enterprise"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./gridpay.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Process: ProcessConfig{
			MaxWorkers: 8,
			ResultTTL:  3600, // 1 hour
		},
		Extract: ExtractConfig{
			Provider:       "", // uploads disabled until a provider is configured
			Model:          "gpt-4o",
			RequestsPerSec: 0.5,
			Burst:          2,
			MaxTokens:      4000,
			TimeoutSeconds: 90,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "gridpay",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "gridpay",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
