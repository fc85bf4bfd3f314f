package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeySnippet    = "snippet"
	KeyTarget     = "target"
	KeyPath       = "path"
	KeyName       = "name"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Snippet(name string) slog.Attr   { return slog.String(KeySnippet, name) }
func Target(name string) slog.Attr    { return slog.String(KeyTarget, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Nanoseconds())/1e6)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
