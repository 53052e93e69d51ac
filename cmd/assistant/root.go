package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/rentmap-voice/internal/adapter/ai"
	"github.com/seu-repo/rentmap-voice/internal/adapter/cache"
	"github.com/seu-repo/rentmap-voice/internal/adapter/queue"
	"github.com/seu-repo/rentmap-voice/internal/adapter/storage/memory"
	"github.com/seu-repo/rentmap-voice/internal/adapter/storage/postgres"
	"github.com/seu-repo/rentmap-voice/internal/ports"
	"github.com/seu-repo/rentmap-voice/internal/service/property"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
	"github.com/seu-repo/rentmap-voice/pkg/config"
)

type rootOptions struct {
	configPath string
	fixture    string
	verbose    bool
}

// app holds everything a subcommand needs; close releases it.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	service  *property.Service
	resolver *voice.Resolver
	cache    ports.Cache
	close    func()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "rentmap-assistant",
		Short:         "Asistente de voz de RentMap en la terminal",
		Long:          "rentmap-assistant resuelve frases sueltas o abre una conversación por consola contra el mismo pipeline que usa el panel.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "ruta al archivo de configuración")
	flags.StringVar(&opts.fixture, "workspace", "", "fixture YAML con propiedades y profesionales (sin base de datos)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "logs de depuración")

	rootCmd.AddCommand(
		newResolveCmd(opts),
		newChatCmd(opts),
	)

	return rootCmd
}

func wireApp(opts *rootOptions) (*app, error) {
	var paths []string
	if opts.configPath != "" {
		paths = append(paths, opts.configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}

	level := zapcore.WarnLevel
	if opts.verbose {
		level = zapcore.DebugLevel
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	log, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	closers := []func(){func() { _ = log.Sync() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		properties    ports.PropertyRepository
		professionals ports.ProfessionalRepository
		expenses      ports.ExpenseRepository
	)
	if opts.fixture != "" {
		store, err := memory.LoadFixture(opts.fixture)
		if err != nil {
			cleanup()
			return nil, err
		}
		properties, professionals, expenses = store.Properties(), store.Professionals(), store.Expenses()
	} else {
		db, err := postgres.NewConnection(cfg.Database.URL, postgres.PoolConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 1,
			LogLevel:     cfg.Database.LogLevel,
		}, log)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, func() { _ = postgres.Close(db) })
		properties = postgres.NewPropertyRepository(db, log)
		professionals = postgres.NewProfessionalRepository(db, log)
		expenses = postgres.NewExpenseRepository(db, log)
	}

	appCache := cache.NewLocalCache(time.Minute, log)
	mq := queue.NewMemoryQueue(log)
	closers = append(closers, func() { _ = appCache.Close() }, func() { _ = mq.Close() })

	model, err := ai.NewLanguageModel(ai.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	}, log)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		service:  property.NewService(properties, professionals, expenses, appCache, mq, log),
		resolver: voice.NewResolver(model, voice.ResolverConfig{Timeout: cfg.LLM.Timeout}, log),
		cache:    appCache,
		close:    cleanup,
	}, nil
}
