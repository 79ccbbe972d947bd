package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards everything, so test output is
// just the assertions.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
