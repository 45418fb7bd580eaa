// Package logger builds the slog handler selected by configuration.
package logger

import (
	"fmt"
	"io"
	"log/slog"
)

// Output formats.
const (
	FormatJSON   = "json"
	FormatText   = "text"
	FormatPretty = "pretty"
)

// New returns a logger writing to w in the given format. An empty format
// means JSON.
func New(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatPretty:
		return slog.New(NewPrettyHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("logger: unknown format %q", format)
}
