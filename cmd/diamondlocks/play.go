package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/diamondlocks/cmd/diamondlocks/shared"
	"github.com/lox/diamondlocks/internal/tui"
)

// PlayCmd plays blackjack against the configured store
type PlayCmd struct {
	User    string `arg:"" env:"DIAMONDLOCKS_USER" help:"Player name"`
	NoColor bool   `help:"Disable colors"`
	LogFile string `default:"diamondlocks-play.log" help:"Where to write logs while playing"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := shared.SetupFileLogger(c.LogFile, cfg.Server.LogLevel, g.Debug)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = closeLog() }()

	if c.NoColor {
		tui.DisableColor()
	}

	ctx := shared.SignalContext(nil)
	svc, err := openService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	tbl, err := svc.Table(ctx, c.User)
	if err != nil {
		return err
	}
	model, err := tui.New(ctx, tbl, svc, logger)
	if err != nil {
		return err
	}
	defer model.Close()

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		// interrupted; the round stays persisted
		return nil
	}
	return err
}
