package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// SignalContext is cancelled on SIGINT or SIGTERM. A nil logger keeps it
// quiet, which the terminal client needs.
func SignalContext(logger *log.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if logger != nil {
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
		}
		signal.Stop(sigChan)
		cancel()
	}()

	return ctx
}
