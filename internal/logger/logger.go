// Package logger provides a thin wrapper around zerolog.Logger used
// throughout the server.
//
// Output goes to stderr: stdout carries the MCP stdio transport, and a
// single stray log line there would corrupt the protocol stream.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API is available
// directly, while keeping room for application-specific helpers.
type Logger struct {
	zerolog.Logger
}

// New constructs a *Logger for the given component label
// (e.g. "server", "nbclient"). Entries are JSON with a "component"
// field and a timestamp, written to stderr.
func New(component string) *Logger {
	l := zerolog.New(os.Stderr).With().
		Str("component", component).
		Timestamp().
		Logger()

	return &Logger{l}
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Child returns a new *Logger inheriting all fields of the receiver.
func (l *Logger) Child() *Logger {
	return &Logger{l.With().Logger()}
}
