// Package logger builds the zerolog.Logger shared by every component in
// the dispatcher and worker processes.
package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/AlfredDev/bestcombo/config"
)

// New returns a configured zerolog.Logger, verbose in development and
// at the configured level otherwise.
func New(cfg *config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !cfg.IsDevelopment()}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if cfg.IsDevelopment() {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(out).With().Timestamp().Logger()
}
