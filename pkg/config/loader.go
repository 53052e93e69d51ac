package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (or the file at path when given), then
// environment overrides. A .env file in the working directory is loaded
// first when present.
func Load(path ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if len(path) > 0 && path[0] != "" {
		v.SetConfigFile(path[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/app/configs")
	}

	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("queue.url", "NATS_URL", "APP_QUEUE_URL")
	v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	v.BindEnv("llm.api_key", "GEMINI_API_KEY", "APP_LLM_API_KEY")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(len(path) == 0 && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rentmap-voice")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("grpc.port", 9090)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.history_ttl", 30*time.Minute)
	v.SetDefault("queue.driver", "memory")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.timeout", 20*time.Second)
	v.SetDefault("voice.locale", "es-AR")
	v.SetDefault("voice.execute_delay", 600*time.Millisecond)
	v.SetDefault("voice.history_limit", 20)
	v.SetDefault("voice.session_ttl", 10*time.Minute)
	v.SetDefault("vault.secret_path", "secret/data/rentmap/llm")
	v.SetDefault("opentelemetry.service_name", "rentmap-voice")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)
	v.SetDefault("cors.enabled", true)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var problems []string
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("http.port %d out of range", c.HTTP.Port))
	}
	switch c.LLM.Provider {
	case "gemini", "anthropic", "openai":
	default:
		problems = append(problems, fmt.Sprintf("llm.provider %q unknown", c.LLM.Provider))
	}
	switch c.Queue.Driver {
	case "memory", "":
	case "nats", "rabbitmq":
		if c.Queue.URL == "" {
			problems = append(problems, "queue.url required for "+c.Queue.Driver)
		}
	default:
		problems = append(problems, fmt.Sprintf("queue.driver %q unknown", c.Queue.Driver))
	}
	if c.JWT.Enabled && c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret required when jwt is enabled")
	}
	if c.Voice.HistoryLimit < 0 {
		problems = append(problems, "voice.history_limit must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
