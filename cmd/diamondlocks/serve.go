package main

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/diamondlocks/cmd/diamondlocks/shared"
	"github.com/lox/diamondlocks/internal/casino"
	"github.com/lox/diamondlocks/internal/server"
)

// ServeCmd runs the HTTP and WebSocket server
type ServeCmd struct {
	Addr string `short:"a" help:"Address to bind to, overrides config"`
	Port int    `short:"p" help:"Port to listen on, overrides config"`
	Seed *int64 `help:"Deterministic RNG seed for shuffles and flips (optional)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel, g.Debug)
	ctx := shared.SignalContext(logger)

	var opts []casino.Option
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		opts = append(opts, casino.WithSeed(*c.Seed))
	}
	svc, err := openService(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close casino", "error", err)
		}
	}()

	srv := server.NewServer(cfg.Address(), svc, logger)
	logger.Info("Starting DiamondLocks server",
		"addr", cfg.Address(),
		"store", cfg.Store.Driver,
		"chips", cfg.Blackjack.Chips,
		"deal_delay", cfg.Blackjack.DealDelay(),
		"dealer_delay", cfg.Blackjack.DealerDelay(),
		"coinflip_delay", cfg.CoinFlip.Delay())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(srv.Start)
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
