package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger creates a console logger at level; debug wins over level.
func SetupLogger(level string, debug bool) *log.Logger {
	return newLogger(os.Stderr, level, debug)
}

// SetupFileLogger logs to path, used while a full screen program owns the
// terminal. It returns a closer for the file.
func SetupFileLogger(path, level string, debug bool) (*log.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return newLogger(f, level, debug), f.Close, nil
}

func newLogger(w io.Writer, level string, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if debug {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}
