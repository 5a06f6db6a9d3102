package runcmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/papercomputeco/gatewaybridge/pkg/logger"
)

// newLogger builds the run command's logger. Without a log file everything
// goes to console. With one, records are also appended to the file as JSON:
// a JSON console shares one handler with the file, a pretty console is fanned
// out next to a JSON file handler.
func newLogger(console io.Writer, debug, jsonOut bool, logFile string) (*slog.Logger, func() error, error) {
	nop := func() error { return nil }

	if logFile == "" {
		return logger.New(
			logger.WithDebug(debug),
			logger.WithJSON(jsonOut),
			logger.WithPretty(!jsonOut),
			logger.WithWriter(console),
		), nop, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nop, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nop, fmt.Errorf("opening log file: %w", err)
	}

	if jsonOut {
		return logger.New(
			logger.WithDebug(debug),
			logger.WithJSON(true),
			logger.WithSource(debug),
			logger.WithWriters(console, f),
		), f.Close, nil
	}

	return logger.Multi(
		logger.New(
			logger.WithDebug(debug),
			logger.WithPretty(true),
			logger.WithWriter(console),
		),
		logger.New(
			logger.WithDebug(debug),
			logger.WithJSON(true),
			logger.WithSource(debug),
			logger.WithWriter(f),
		),
	), f.Close, nil
}
