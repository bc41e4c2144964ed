package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/diamondlocks/internal/casino"
	"github.com/lox/diamondlocks/internal/config"
	"github.com/lox/diamondlocks/internal/store"
)

// loadConfig reads the config file and applies flag overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Store != "" {
		cfg.Store.Driver = g.Store
	}
	if g.Path != "" {
		cfg.Store.Path = g.Path
	}
	if g.DSN != "" {
		cfg.Store.DSN = g.DSN
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	return cfg, nil
}

// openService opens the configured store and builds the casino over it.
func openService(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...casino.Option) (*casino.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("Store opened", "driver", cfg.Store.Driver)
	return casino.New(s, cfg, logger, opts...), nil
}
