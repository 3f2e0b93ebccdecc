package app

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/epicenter/internal/config"
)

// NewLogger builds the root logger. A nil out writes to stderr.
func NewLogger(cfg config.LogConfig, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "epicenter",
		Level:      level,
		Output:     out,
		JSONFormat: cfg.JSON,
	})
}
