package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonism/hpc-workspace/internal/config"
	"github.com/commonism/hpc-workspace/internal/identity"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

func intp(v int) *int { return &v }

func testConfig() *config.Config {
	return &config.Config{
		DBUID:         85,
		DBGID:         85,
		Default:       "scratch",
		Duration:      10,
		MaxExtensions: 1,
		Workspaces: map[string]*config.Area{
			"scratch": {
				Spaces:        []string{"/scratch/a", "/scratch/b"},
				Database:      "/scratch/.ws/ws.db",
				Deleted:       ".removed",
				Duration:      30,
				MaxExtensions: intp(3),
			},
			"priv": {
				Spaces:   []string{"/priv/space"},
				Database: "/priv/.ws/ws.db",
				Deleted:  ".removed",
				UserACL:  []string{"alice"},
				GroupACL: []string{"wheel"},
			},
			"lab": {
				Spaces:       []string{"/lab/space"},
				Database:     "/lab/.ws/ws.db",
				Deleted:      ".removed",
				UserDefault:  []string{"carol"},
				GroupDefault: []string{"lab"},
			},
		},
	}
}

func alice() *identity.Identity {
	return &identity.Identity{Username: "alice", UID: 1000, PrimaryGroup: "users", Groups: []string{"users"}}
}

func TestResolveRequestedAreaWithoutACLIsOpen(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	res, err := r.Resolve(alice(), "scratch")
	require.NoError(t, err)
	assert.Equal(t, "scratch", res.AreaName)
	assert.Equal(t, 30, res.Duration)
	assert.Equal(t, 3, res.MaxExtensions)
}

func TestResolveACLUserMatch(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	res, err := r.Resolve(alice(), "priv")
	require.NoError(t, err)
	assert.Equal(t, "priv", res.AreaName)
	// priv has no own limits, global defaults apply.
	assert.Equal(t, 10, res.Duration)
	assert.Equal(t, 1, res.MaxExtensions)
}

func TestResolveACLGroupMatch(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	bob := &identity.Identity{Username: "bob", UID: 1001, PrimaryGroup: "users", Groups: []string{"users", "wheel"}}
	_, err := r.Resolve(bob, "priv")
	assert.NoError(t, err)
}

func TestResolveACLDenied(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	mallory := &identity.Identity{Username: "mallory", UID: 1002, PrimaryGroup: "users", Groups: []string{"users"}}
	_, err := r.Resolve(mallory, "priv")
	require.Error(t, err)
	assert.True(t, wserrors.IsCategory(err, wserrors.CategoryAuth))
}

func TestResolveUnknownAreaIsValidationError(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	_, err := r.Resolve(alice(), "nosuch")
	require.Error(t, err)
	assert.True(t, wserrors.IsCategory(err, wserrors.CategoryValidation))
}

func TestDefaultAreaUserMappingWinsOverGroups(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	carol := &identity.Identity{Username: "carol", UID: 1003, PrimaryGroup: "users", Groups: []string{"users", "lab"}}
	res, err := r.Resolve(carol, "")
	require.NoError(t, err)
	assert.Equal(t, "lab", res.AreaName)
}

func TestDefaultAreaPrimaryGroupMapping(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	dave := &identity.Identity{Username: "dave", UID: 1004, PrimaryGroup: "lab", Groups: []string{"lab"}}
	res, err := r.Resolve(dave, "")
	require.NoError(t, err)
	assert.Equal(t, "lab", res.AreaName)
}

func TestDefaultAreaSecondaryGroupMapping(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	erin := &identity.Identity{Username: "erin", UID: 1005, PrimaryGroup: "users", Groups: []string{"users", "lab"}}
	res, err := r.Resolve(erin, "")
	require.NoError(t, err)
	assert.Equal(t, "lab", res.AreaName)
}

func TestDefaultAreaGlobalFallback(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	res, err := r.Resolve(alice(), "")
	require.NoError(t, err)
	assert.Equal(t, "scratch", res.AreaName)
}

func TestUserExceptionOverridesLimits(t *testing.T) {
	exc := &config.UserExceptions{
		Workspaces: map[string]config.AreaExceptions{
			"scratch": {UserExceptions: map[string]config.Exception{
				"alice": {Duration: intp(90), MaxExtensions: intp(10)},
			}},
		},
	}
	r := NewResolver(testConfig(), exc)

	res, err := r.Resolve(alice(), "scratch")
	require.NoError(t, err)
	assert.Equal(t, 90, res.Duration)
	assert.Equal(t, 10, res.MaxExtensions)

	// Exceptions are exact-user; others keep area defaults.
	bob := &identity.Identity{Username: "bob", UID: 1001, PrimaryGroup: "users", Groups: []string{"users"}}
	res, err = r.Resolve(bob, "scratch")
	require.NoError(t, err)
	assert.Equal(t, 30, res.Duration)
	assert.Equal(t, 3, res.MaxExtensions)
}

func TestClampDuration(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	res, err := r.Resolve(alice(), "scratch")
	require.NoError(t, err)

	days, clamped := res.ClampDuration(alice(), 60)
	assert.Equal(t, 30, days)
	assert.True(t, clamped)

	days, clamped = res.ClampDuration(alice(), 7)
	assert.Equal(t, 7, days)
	assert.False(t, clamped)

	// Unset request falls back to the limit.
	days, clamped = res.ClampDuration(alice(), 0)
	assert.Equal(t, 30, days)
	assert.False(t, clamped)

	// The administrator identity bypasses clamping.
	root := &identity.Identity{Username: "root", UID: 0, PrimaryGroup: "root", Groups: []string{"root"}}
	days, clamped = res.ClampDuration(root, 365)
	assert.Equal(t, 365, days)
	assert.False(t, clamped)
}
