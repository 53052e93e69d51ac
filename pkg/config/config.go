package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	GRPC           GRPCConfig           `mapstructure:"grpc"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Queue          QueueConfig          `mapstructure:"queue"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Voice          VoiceConfig          `mapstructure:"voice"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"`
}

// RedisConfig with an empty URL selects the in-memory cache.
type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	HistoryTTL time.Duration `mapstructure:"history_ttl"`
}

type QueueConfig struct {
	// Driver is nats, rabbitmq or memory.
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

type JWTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type VoiceConfig struct {
	Locale       string        `mapstructure:"locale"`
	ExecuteDelay time.Duration `mapstructure:"execute_delay"`
	HistoryLimit int           `mapstructure:"history_limit"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

type VaultConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	SecretPath string `mapstructure:"secret_path"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}
