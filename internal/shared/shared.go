// package shared defines helpers used across the SpinSync backend
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a [log.Logger] writing to w with timestamps and caller
// reporting enabled. A nil writer defaults to [os.Stderr].
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    true,
	})
}

// WithLogger derives a child [log.Logger] that stamps every entry with the
// given key-value pairs. Each server component gets its own child so log
// lines can be traced back to the auth manager, the mix engine, or the HTTP
// layer.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel applies a [log.Level] to the logger, typically parsed from the
// server.log_level config key.
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string.
//
// Used for session identifiers and OAuth state values.
func GenerateID() string {
	return uuid.New().String()
}
