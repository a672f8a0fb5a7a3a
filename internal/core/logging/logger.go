// Package logging provides zerolog helpers shared by the overlay components.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Window creates a component logger scoped to one overlay window.
func Window(index int) zerolog.Logger {
	return log.With().Str("cmp", "window").Int("window", index).Logger()
}
