package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/config"
	"github.com/vk/amnis/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	model      *config.Model
	catalogue  *catalogue.Registry
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Frames are written to
// outW and logs to logW. When no modules are given the core modules are
// registered, configured from the loaded model.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...catalogue.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model := &config.Model{}
	if len(cfg.ConfigPaths) > 0 {
		loaded, err := loader.Load(ctx, cfg.ConfigPaths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		model = loaded
		logger.Debug("Configuration loaded and translated into unified model.")
	}

	if len(modules) == 0 {
		modules = coreModules(model)
	}
	reg := catalogue.NewWithModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "functions", reg.Names())

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		model:     model,
		catalogue: reg,
	}, nil
}

// Catalogue returns the application's function catalogue. This is primarily for testing.
func (a *App) Catalogue() *catalogue.Registry {
	return a.catalogue
}
