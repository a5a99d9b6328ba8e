// Package callout holds the optional placement hook that decides a
// directory prefix between a storage root and the owner-name leaf, letting
// sites shard large user populations across subdirectories.
package callout

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/commonism/hpc-workspace/internal/logfields"
)

// PrefixHook returns a path prefix for (area, user), or "" for none. Hooks
// must be side-effect free; any failure means "no prefix", never an aborted
// allocation.
type PrefixHook func(area, user string) string

// None is the default hook.
func None(area, user string) string { return "" }

// execTimeout bounds a hook run; a hung site script must not hang the tool.
const execTimeout = 10 * time.Second

// Exec returns a hook that runs the configured executable with arguments
// <area> <user> and uses its trimmed stdout as the prefix. Errors are logged
// at warn level and yield no prefix.
func Exec(path string) PrefixHook {
	return func(area, user string) string {
		ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, path, area, user).Output()
		if err != nil {
			slog.Warn("prefix callout failed, using no prefix",
				logfields.Path(path), logfields.Area(area),
				logfields.User(user), logfields.Error(err))
			return ""
		}
		return strings.Trim(strings.TrimSpace(string(out)), "/")
	}
}

// ForArea picks the hook for an area: Exec when a callout is configured,
// None otherwise.
func ForArea(calloutPath string) PrefixHook {
	if calloutPath == "" {
		return None
	}
	return Exec(calloutPath)
}
