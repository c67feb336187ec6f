package keycore

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chainguard-dev/clog"
)

// ParseLogLevel maps "debug", "info", "warn" and "error" to slog levels. An empty string
// is "info".
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger returns a text logger writing to w at the configured level.
func NewLogger(w io.Writer, level string) (*clog.Logger, error) {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
