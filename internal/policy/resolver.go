// Package policy decides which storage area, lifetime and extension count
// apply to a caller. ACL authorization and default-area resolution follow
// the site configuration; per-user exceptions from the secondary
// configuration take precedence over area and global defaults.
package policy

import (
	"github.com/commonism/hpc-workspace/internal/config"
	"github.com/commonism/hpc-workspace/internal/identity"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// Resolution is the effective policy for one (identity, area) pair.
type Resolution struct {
	AreaName string
	Area     *config.Area

	// Duration is the maximum lifetime in days the caller may request.
	Duration int
	// MaxExtensions is the extension count new workspaces start with.
	MaxExtensions int
}

// Resolver resolves areas and limits against the loaded configuration.
type Resolver struct {
	cfg        *config.Config
	exceptions *config.UserExceptions
}

// NewResolver creates a resolver. exceptions may be nil.
func NewResolver(cfg *config.Config, exceptions *config.UserExceptions) *Resolver {
	return &Resolver{cfg: cfg, exceptions: exceptions}
}

// Resolve determines the effective area and limits. If requestedArea is
// non-empty the caller must be authorized for it; otherwise the default-area
// strategies run in priority order, first match wins.
func (r *Resolver) Resolve(id *identity.Identity, requestedArea string) (*Resolution, error) {
	name := requestedArea
	if name != "" {
		area, err := r.cfg.Area(name)
		if err != nil {
			return nil, err
		}
		if !authorized(area, id) {
			return nil, wserrors.AreaNotAllowed(name, id.Username)
		}
	} else {
		var ok bool
		name, ok = r.defaultArea(id)
		if !ok {
			return nil, wserrors.ConfigRequired("default")
		}
	}

	area, err := r.cfg.Area(name)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		AreaName:      name,
		Area:          area,
		Duration:      r.durationLimit(name, area, id.Username),
		MaxExtensions: r.extensionLimit(name, area, id.Username),
	}, nil
}

// authorized implements the area ACL check: open when no ACLs are
// configured, otherwise a user or group match is required.
func authorized(area *config.Area, id *identity.Identity) bool {
	if len(area.UserACL) == 0 && len(area.GroupACL) == 0 {
		return true
	}
	for _, u := range area.UserACL {
		if u == id.Username {
			return true
		}
	}
	for _, g := range area.GroupACL {
		if id.MemberOf(g) {
			return true
		}
	}
	return false
}

// areaStrategy is one step of default-area resolution, a pure function over
// (identity, configuration) returning an optional area name.
type areaStrategy func(*Resolver, *identity.Identity) (string, bool)

var defaultStrategies = []areaStrategy{
	(*Resolver).userDefault,
	(*Resolver).primaryGroupDefault,
	(*Resolver).anyGroupDefault,
	(*Resolver).globalDefault,
}

// defaultArea runs the resolution strategies in priority order.
func (r *Resolver) defaultArea(id *identity.Identity) (string, bool) {
	for _, strategy := range defaultStrategies {
		if name, ok := strategy(r, id); ok {
			return name, true
		}
	}
	return "", false
}

func (r *Resolver) userDefault(id *identity.Identity) (string, bool) {
	for name, area := range r.cfg.Workspaces {
		for _, u := range area.UserDefault {
			if u == id.Username {
				return name, true
			}
		}
	}
	return "", false
}

func (r *Resolver) primaryGroupDefault(id *identity.Identity) (string, bool) {
	for name, area := range r.cfg.Workspaces {
		for _, g := range area.GroupDefault {
			if g == id.PrimaryGroup {
				return name, true
			}
		}
	}
	return "", false
}

func (r *Resolver) anyGroupDefault(id *identity.Identity) (string, bool) {
	for name, area := range r.cfg.Workspaces {
		for _, g := range area.GroupDefault {
			if id.MemberOf(g) {
				return name, true
			}
		}
	}
	return "", false
}

func (r *Resolver) globalDefault(id *identity.Identity) (string, bool) {
	if r.cfg.Default == "" {
		return "", false
	}
	return r.cfg.Default, true
}

// durationLimit looks up the lifetime limit: user exception, then area
// default, then global default.
func (r *Resolver) durationLimit(areaName string, area *config.Area, user string) int {
	if exc, ok := r.exceptions.Lookup(areaName, user); ok && exc.Duration != nil {
		return *exc.Duration
	}
	if area.Duration > 0 {
		return area.Duration
	}
	return r.cfg.Duration
}

// extensionLimit looks up the extension limit with the same precedence.
func (r *Resolver) extensionLimit(areaName string, area *config.Area, user string) int {
	if exc, ok := r.exceptions.Lookup(areaName, user); ok && exc.MaxExtensions != nil {
		return *exc.MaxExtensions
	}
	if area.MaxExtensions != nil {
		return *area.MaxExtensions
	}
	return r.cfg.MaxExtensions
}

// ClampDuration lowers a requested lifetime to the resolved limit. The
// administrator identity bypasses clamping; requests are never raised.
func (res *Resolution) ClampDuration(id *identity.Identity, requested int) (days int, clamped bool) {
	if requested <= 0 {
		return res.Duration, false
	}
	if id.IsAdmin() {
		return requested, false
	}
	if requested > res.Duration {
		return res.Duration, true
	}
	return requested, false
}
