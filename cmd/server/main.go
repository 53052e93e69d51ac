package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/rentmap-voice/internal/adapter/ai"
	"github.com/seu-repo/rentmap-voice/internal/adapter/cache"
	"github.com/seu-repo/rentmap-voice/internal/adapter/grpc/server"
	"github.com/seu-repo/rentmap-voice/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/rentmap-voice/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/rentmap-voice/internal/adapter/queue"
	"github.com/seu-repo/rentmap-voice/internal/adapter/storage/postgres"
	"github.com/seu-repo/rentmap-voice/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/rentmap-voice/internal/adapter/websocket"
	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/observability/telemetry"
	"github.com/seu-repo/rentmap-voice/internal/ports"
	"github.com/seu-repo/rentmap-voice/internal/service/health"
	"github.com/seu-repo/rentmap-voice/internal/service/property"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
	"github.com/seu-repo/rentmap-voice/pkg/config"
)

const serviceName = "rentmap-voice"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting RentMap voice assistant",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version,
			cfg.OpenTelemetry.Jaeger.Endpoint, cfg.OpenTelemetry.Jaeger.SamplerParam)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Resolve the LLM key from Vault when configured
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Vault client", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		key, err := secrets.GetLLMAPIKey(ctx, cfg.Vault.SecretPath)
		cancel()
		if err != nil {
			logger.Fatal("Failed to read LLM API key from Vault", zap.Error(err))
		}
		cfg.LLM.APIKey = key
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database.URL, postgres.PoolConfig{
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgres.Close(db)

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// 6. Initialize Cache (Redis, or in-process when no URL is set)
	var (
		appCache     ports.Cache
		historyStore ports.HistoryStore
	)
	if cfg.Redis.URL != "" {
		client, err := cache.Dial(context.Background(), cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		appCache = cache.NewRedisCache(client, logger)
		historyStore = cache.NewRedisHistoryStore(client, cfg.Redis.HistoryTTL)
	} else {
		logger.Warn("Redis URL not set, using in-process cache")
		appCache = cache.NewLocalCache(time.Minute, logger)
		historyStore = cache.NewHistoryStore(appCache, cfg.Redis.HistoryTTL)
	}
	defer appCache.Close()

	// 7. Initialize Message Queue
	messageQueue, err := queue.New(cfg.Queue.Driver, cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// 8. Initialize Repositories and Services
	propertyService := property.NewService(
		postgres.NewPropertyRepository(db, logger),
		postgres.NewProfessionalRepository(db, logger),
		postgres.NewExpenseRepository(db, logger),
		appCache,
		messageQueue,
		logger,
	)

	// 9. Initialize Language Model and Voice Assistant
	model, err := ai.NewLanguageModel(ai.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize language model", zap.Error(err))
	}

	resolver := voice.NewResolver(model, voice.ResolverConfig{Timeout: cfg.LLM.Timeout}, logger)

	assistant := voice.NewAssistant(
		resolver,
		propertyService,
		propertyService,
		historyStore,
		voice.AssistantConfig{
			Locale:       cfg.Voice.Locale,
			HistoryLimit: cfg.Voice.HistoryLimit,
			ExecuteDelay: cfg.Voice.ExecuteDelay,
		},
		logger,
	)

	// 10. Initialize Voice Session Registry
	registry := wsAdapter.NewRegistry(assistant, propertyService, cfg.Voice.SessionTTL, logger)

	// Fan committed changes from any replica out to every open session.
	for _, subject := range []string{domain.SubjectPropertyUpdated, domain.SubjectExpenseRegistered} {
		if err := messageQueue.Subscribe(subject, registry.Relay(subject)); err != nil {
			logger.Fatal("Failed to subscribe", zap.String("subject", subject), zap.Error(err))
		}
	}

	// 11. Health checks
	healthService := health.NewService(health.Config{
		Version:  cfg.App.Version,
		DB:       db,
		Cache:    appCache,
		Queue:    messageQueue,
		LLM:      model.Available,
		Sessions: registry.Count,
	}, logger)

	// 12. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))
	}

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")
	if cfg.JWT.Enabled {
		v1.Use(middleware.AuthRequired(cfg.JWT))
	}
	handlers.Handlers{
		Properties:    handlers.NewPropertyHandler(propertyService, logger),
		Professionals: handlers.NewProfessionalHandler(propertyService, logger),
		Expenses:      handlers.NewExpenseHandler(propertyService, logger),
		Voice:         handlers.NewVoiceHandler(resolver, propertyService, registry, logger),
	}.Register(v1)

	// Voice WebSocket
	if cfg.JWT.Enabled {
		app.Use("/ws", middleware.AuthRequired(cfg.JWT))
	}
	wsAdapter.SetupRoutes(app, registry)

	// 13. Initialize gRPC health server
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var grpcServer *server.GRPCServer
	if cfg.GRPC.Enabled {
		grpcServer = server.NewGRPCServer(cfg.JWT, logger)
		go grpcServer.Watch(ctx, 15*time.Second, func(ctx context.Context) bool {
			return healthService.Ready(ctx).Ready
		})
		go func() {
			if err := grpcServer.Serve(cfg.GRPC.Port); err != nil {
				logger.Fatal("gRPC Server failed", zap.Error(err))
			}
		}()
	}

	// 14. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 15. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	registry.CloseAll()
	if grpcServer != nil {
		grpcServer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
