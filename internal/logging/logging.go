// Package logging builds the process logger for each run mode.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/config"
)

// New returns a logger writing text to stderr at the configured level.
// In stdio mode stdout carries the MCP protocol, and log output is
// discarded unless debug logging is enabled.
func New(cfg *config.Config) *logrus.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *config.Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: cfg.IsStdioMode(),
	})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.IsStdioMode() && !cfg.IsDebug() {
		logger.SetOutput(io.Discard)
	}
	return logger
}
