package config

import "time"

// Area describes one configured storage area ("filesystem") workspaces can
// be created within.
type Area struct {
	// Spaces are the candidate storage roots. A new workspace is placed
	// under a pseudo-randomly chosen root for coarse load spreading.
	Spaces []string `yaml:"spaces"`

	// Database is the directory holding one record file per workspace.
	Database string `yaml:"database"`

	// Deleted is the subdirectory name used as the trash location, both
	// under Database and under each storage root's parent.
	Deleted string `yaml:"deleted"`

	// Duration is the default maximum lifetime in days. Zero means the
	// global default applies.
	Duration int `yaml:"duration,omitempty"`

	// MaxExtensions is the default maximum extension count. Nil means the
	// global default applies; zero forbids extensions.
	MaxExtensions *int `yaml:"maxextensions,omitempty"`

	UserACL  []string `yaml:"user_acl,omitempty"`
	GroupACL []string `yaml:"group_acl,omitempty"`

	// UserDefault / GroupDefault map users and groups to this area when no
	// area is requested explicitly.
	UserDefault  []string `yaml:"userdefault,omitempty"`
	GroupDefault []string `yaml:"groupdefault,omitempty"`

	// PrefixCallout is an optional executable consulted for a directory
	// prefix between a storage root and the owner-name leaf.
	PrefixCallout string `yaml:"prefix_callout,omitempty"`
}

// Config is the primary, administrator-owned configuration (/etc/ws.conf).
type Config struct {
	// DBUID / DBGID are the numeric identity owning record files and the
	// identity the process lowers to between privileged mutations.
	DBUID int `yaml:"dbuid"`
	DBGID int `yaml:"dbgid"`

	// Default names the system-wide default area.
	Default string `yaml:"default"`

	// Duration and MaxExtensions are the global fallback limits.
	Duration      int `yaml:"duration"`
	MaxExtensions int `yaml:"maxextensions"`

	// MoveTimeout bounds the external recursive-move fallback, in seconds.
	// Zero means DefaultMoveTimeout.
	MoveTimeout int `yaml:"movetimeout,omitempty"`

	Workspaces map[string]*Area `yaml:"workspaces"`
}

// DefaultMoveTimeout bounds the spawned /bin/mv fallback when the
// configuration does not say otherwise.
const DefaultMoveTimeout = 10 * time.Minute

// Exception is a per-user override of the limits of one area.
type Exception struct {
	Duration      *int `yaml:"duration,omitempty"`
	MaxExtensions *int `yaml:"maxextensions,omitempty"`
}

// AreaExceptions holds the per-user exceptions of one area.
type AreaExceptions struct {
	UserExceptions map[string]Exception `yaml:"userexceptions,omitempty"`
}

// UserExceptions is the secondary, caller-supplied configuration layering
// per-user limit overrides on top of the primary configuration.
type UserExceptions struct {
	Workspaces map[string]AreaExceptions `yaml:"workspaces"`
}

// Lookup returns the exception for (area, user), if any.
func (u *UserExceptions) Lookup(area, user string) (Exception, bool) {
	if u == nil {
		return Exception{}, false
	}
	ae, ok := u.Workspaces[area]
	if !ok {
		return Exception{}, false
	}
	exc, ok := ae.UserExceptions[user]
	return exc, ok
}

// EffectiveMoveTimeout returns the configured move timeout or the default.
func (c *Config) EffectiveMoveTimeout() time.Duration {
	if c.MoveTimeout > 0 {
		return time.Duration(c.MoveTimeout) * time.Second
	}
	return DefaultMoveTimeout
}
