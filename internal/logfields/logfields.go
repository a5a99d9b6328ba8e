package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyUser         = "user"
	KeyOwner        = "owner"
	KeyArea         = "area"
	KeyWorkspace    = "workspace"
	KeyPath         = "path"
	KeySource       = "source"
	KeyTarget       = "target"
	KeyDurationDays = "duration_days"
	KeyExtensions   = "extensions"
	KeyOperation    = "operation"
	KeyCapability   = "capability"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func User(name string) slog.Attr      { return slog.String(KeyUser, name) }
func Owner(name string) slog.Attr     { return slog.String(KeyOwner, name) }
func Area(name string) slog.Attr      { return slog.String(KeyArea, name) }
func Workspace(name string) slog.Attr { return slog.String(KeyWorkspace, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Target(p string) slog.Attr       { return slog.String(KeyTarget, p) }
func DurationDays(d int) slog.Attr    { return slog.Int(KeyDurationDays, d) }
func Extensions(n int) slog.Attr      { return slog.Int(KeyExtensions, n) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Capability(c string) slog.Attr   { return slog.String(KeyCapability, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
