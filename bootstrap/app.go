// Package bootstrap wires configuration, logging and the normalization
// engine into a runnable application.
package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"talos/config"
	"talos/normalize"
	"talos/schema"
)

// App holds the initialized application components shared by all
// subcommands.
type App struct {
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
	Config *config.Config
	Engine *normalize.Engine
	Loader *schema.Loader
}

// NewApp loads configuration and constructs the engine and schema loader.
// Storage and the API server are opened by the subcommands that need
// them.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, sugar, err := InitLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	engine := normalize.NewEngine(normalize.EngineConfig{
		ScriptsDir:    cfg.ScriptsDir,
		EnableMetrics: cfg.EnableMetrics,
	}, sugar)

	return &App{
		Logger: logger,
		Sugar:  sugar,
		Config: cfg,
		Engine: engine,
		Loader: schema.NewLoader(engine.Transforms(), sugar),
	}, nil
}

// Close flushes buffered log entries.
func (a *App) Close() {
	_ = a.Logger.Sync()
}
