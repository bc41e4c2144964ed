package main

import (
	"context"
	"fmt"

	"github.com/lox/diamondlocks/cmd/diamondlocks/shared"
	"github.com/lox/diamondlocks/internal/casino"
)

// BalanceCmd prints a player's balance
type BalanceCmd struct {
	User string `arg:"" help:"Player name"`
}

func (c *BalanceCmd) Run(g *Globals) error {
	return withService(g, func(ctx context.Context, svc *casino.Service) error {
		n, err := svc.Balance(ctx, c.User)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d DiamondLocks\n", c.User, n)
		return nil
	})
}

// FaucetCmd credits one DiamondLock
type FaucetCmd struct {
	User  string `arg:"" help:"Player name"`
	Times int    `short:"n" default:"1" help:"How many presses"`
}

func (c *FaucetCmd) Run(g *Globals) error {
	if c.Times < 1 {
		return fmt.Errorf("--times must be at least 1")
	}
	return withService(g, func(ctx context.Context, svc *casino.Service) error {
		var n int
		for range c.Times {
			var err error
			if n, err = svc.Faucet(ctx, c.User); err != nil {
				return err
			}
		}
		fmt.Printf("%s: %d DiamondLocks\n", c.User, n)
		return nil
	})
}

// VersionCmd prints the build version
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("diamondlocks", version)
	return nil
}

func withService(g *Globals, fn func(context.Context, *casino.Service) error) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := shared.SetupLogger(cfg.Server.LogLevel, g.Debug)
	ctx := shared.SignalContext(nil)

	svc, err := openService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return fn(ctx, svc)
}
