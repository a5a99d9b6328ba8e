// Package identity resolves the real calling user once per invocation from
// the operating system's user database. The binary may run setuid, so the
// caller is always derived from the real uid, never the effective one.
package identity

import (
	"os"
	"os/user"
	"strconv"

	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// Identity describes the real caller. Immutable for the process lifetime.
type Identity struct {
	Username     string
	UID          int
	GID          int
	PrimaryGroup string
	Groups       []string
}

// Current resolves the real caller from the user database.
func Current() (*Identity, error) {
	uid := os.Getuid()
	gid := os.Getgid()

	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return nil, wserrors.InternalError("could not resolve calling user", err)
	}

	primary, err := user.LookupGroupId(strconv.Itoa(gid))
	if err != nil {
		return nil, wserrors.InternalError("could not resolve primary group", err)
	}

	gids, err := u.GroupIds()
	if err != nil {
		return nil, wserrors.InternalError("could not resolve group memberships", err)
	}

	groups := make([]string, 0, len(gids))
	for _, g := range gids {
		grp, err := user.LookupGroupId(g)
		if err != nil {
			// Stale gid without a group entry, skip like getgrgid
			// returning NULL.
			continue
		}
		groups = append(groups, grp.Name)
	}

	return &Identity{
		Username:     u.Username,
		UID:          uid,
		GID:          gid,
		PrimaryGroup: primary.Name,
		Groups:       groups,
	}, nil
}

// IsAdmin reports whether the caller is the privileged administrator
// identity, which bypasses limit clamping and may act on behalf of others.
func (id *Identity) IsAdmin() bool {
	return id.UID == 0
}

// MemberOf reports whether the identity is in the named group.
func (id *Identity) MemberOf(group string) bool {
	for _, g := range id.Groups {
		if g == group {
			return true
		}
	}
	return false
}
