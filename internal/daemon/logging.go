package daemon

import (
	"io"
	"log/slog"

	"github.com/1broseidon/intellihide/internal/config"
)

// NewLogger builds the daemon's text logger. The returned level can be changed
// on reload.
func NewLogger(w io.Writer, level string) (*slog.Logger, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})), lv
}

// ParseLevel maps a config log_level to a slog level. It accepts the spellings
// config.Validate accepts; unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch config.NormalizeLogLevel(level) {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
