// Package lifecycle orchestrates the workspace state machine: allocate,
// extend, release into the trash, restore from it. A workspace is always a
// record plus a backing directory; every transition moves both or fails.
package lifecycle

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/commonism/hpc-workspace/internal/callout"
	"github.com/commonism/hpc-workspace/internal/config"
	"github.com/commonism/hpc-workspace/internal/identity"
	"github.com/commonism/hpc-workspace/internal/logfields"
	"github.com/commonism/hpc-workspace/internal/move"
	"github.com/commonism/hpc-workspace/internal/observability"
	"github.com/commonism/hpc-workspace/internal/policy"
	"github.com/commonism/hpc-workspace/internal/privilege"
	"github.com/commonism/hpc-workspace/internal/record"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// Manager runs lifecycle operations for one caller against one resolved
// area. Single invocation, single goroutine; races between independent
// invocations are closed with an advisory lock per record name.
type Manager struct {
	caller  *identity.Identity
	res     *policy.Resolution
	records *record.Store
	mover   *move.Mover
	bracket privilege.Bracket
	hook    callout.PrefixHook

	now  func() time.Time
	pick func(n int) int
}

// NewManager wires a manager for the caller and resolved area.
func NewManager(cfg *config.Config, caller *identity.Identity, res *policy.Resolution, bracket privilege.Bracket) *Manager {
	return &Manager{
		caller:  caller,
		res:     res,
		records: record.NewStore(res.Area.Database, res.Area.Deleted, cfg.DBUID, cfg.DBGID, bracket),
		mover:   move.NewMover(bracket, cfg.EffectiveMoveTimeout()),
		bracket: bracket,
		hook:    callout.ForArea(res.Area.PrefixCallout),
		now:     time.Now,
		pick:    rand.Intn,
	}
}

// AllocateOptions carries the caller's allocate/extend request.
type AllocateOptions struct {
	Name string
	// DurationDays is the requested lifetime; zero requests the policy
	// limit. The value is clamped by the resolver before use.
	DurationDays int
	// TargetUser allocates or extends on behalf of another owner. Only the
	// administrator may allocate for others; any caller with filesystem
	// access to the directory may extend (delegated access).
	TargetUser string
	// Extend requests an extension of an existing workspace.
	Extend bool
	// MaxExtensionsOverride replaces the policy extension count,
	// administrator only.
	MaxExtensionsOverride *int

	Reminder    int
	MailAddress string
	AcctCode    string
}

// AllocateResult reports the workspace state after Allocate.
type AllocateResult struct {
	Directory  string
	Extensions int
	Expiration int64
	Created    bool
	Extended   bool
}

// Allocate creates a workspace, reuses an existing one, or extends it.
func (m *Manager) Allocate(ctx context.Context, opts AllocateOptions) (*AllocateResult, error) {
	owner := m.allocationOwner(opts)
	ctx = observability.WithOperation(ctx, "allocate")

	unlock, err := m.lockRecord(owner, opts.Name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	path := m.records.Path(owner, opts.Name)
	if m.records.Exists(path) {
		rec, err := m.records.Read(path)
		if err != nil {
			return nil, err
		}
		if opts.Extend {
			return m.extend(ctx, path, rec, opts)
		}
		observability.InfoContext(ctx, "reusing workspace", logfields.Path(rec.Workspace))
		return &AllocateResult{
			Directory:  rec.Workspace,
			Extensions: rec.Extensions,
			Expiration: rec.Expiration,
		}, nil
	}

	if opts.Extend {
		return nil, wserrors.WorkspaceNotFound(record.EntryName(owner, opts.Name)).
			WithContext("reason", "workspace does not exist, can not be extended")
	}

	return m.create(ctx, owner, path, opts)
}

// allocationOwner resolves whose record name the operation targets.
// Extension may target another owner for the delegated-access path; fresh
// allocation for another owner is reserved to the administrator.
func (m *Manager) allocationOwner(opts AllocateOptions) string {
	if opts.TargetUser == "" {
		return m.caller.Username
	}
	if opts.Extend || m.caller.IsAdmin() {
		return opts.TargetUser
	}
	return m.caller.Username
}

// extend recomputes the expiry and consumes one extension.
func (m *Manager) extend(ctx context.Context, path string, rec *record.Record, opts AllocateOptions) (*AllocateResult, error) {
	ctx = observability.WithOperation(ctx, "extend")

	if opts.TargetUser != "" && opts.TargetUser != m.caller.Username && !m.caller.IsAdmin() {
		// Not the owner: delegated access requires rwx on the directory.
		if err := unix.Access(rec.Workspace, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
			return nil, wserrors.NotOwner(opts.Name, m.caller.Username)
		}
		observability.InfoContext(ctx, "extending on delegated access",
			logfields.Owner(opts.TargetUser), logfields.Path(rec.Workspace))
	}

	if opts.MaxExtensionsOverride != nil && m.caller.IsAdmin() {
		rec.Extensions = *opts.MaxExtensionsOverride
	} else if rec.Extensions <= 0 {
		// The record engine itself stays permissive; refusal happens here,
		// at the operation layer.
		return nil, wserrors.ValidationFailed("extensions", "no extensions remaining")
	}

	days, clamped := m.res.ClampDuration(m.caller, opts.DurationDays)
	if clamped {
		observability.WarnContext(ctx, "requested duration exceeds the allowed maximum, clamping",
			logfields.DurationDays(days))
	}

	rec.UseExtension(m.now().Add(time.Duration(days) * 24 * time.Hour).Unix())
	if err := m.records.Write(path, rec); err != nil {
		return nil, err
	}

	observability.InfoContext(ctx, "extended workspace",
		logfields.Path(rec.Workspace), logfields.Extensions(rec.Extensions))
	return &AllocateResult{
		Directory:  rec.Workspace,
		Extensions: rec.Extensions,
		Expiration: rec.Expiration,
		Extended:   true,
	}, nil
}

// create builds the directory and writes the fresh record. Any failure
// after directory creation removes the partial directory before reporting.
func (m *Manager) create(ctx context.Context, owner, path string, opts AllocateOptions) (*AllocateResult, error) {
	spaces := m.res.Area.Spaces
	root := spaces[m.pick(len(spaces))]

	dir := root
	if prefix := m.hook(m.res.AreaName, owner); prefix != "" {
		dir = filepath.Join(dir, prefix)
	}
	dir = filepath.Join(dir, record.EntryName(owner, opts.Name))

	err := m.bracket.WithElevated(func() error {
		return os.MkdirAll(dir, 0o700)
	}, privilege.BypassPermissions)
	if err != nil {
		if wserrors.IsCategory(err, wserrors.CategoryPrivilege) {
			return nil, err
		}
		return nil, wserrors.IOFailed("create workspace directory", dir, err)
	}

	// Ownership goes to the real caller, permissions to owner-only.
	err = m.bracket.WithElevated(func() error {
		return os.Chown(dir, m.caller.UID, m.caller.GID)
	}, privilege.ChangeOwnership)
	if err != nil {
		m.removePartial(ctx, dir)
		return nil, wrapUnlessPrivilege(err, "change workspace owner", dir)
	}

	err = m.bracket.WithElevated(func() error {
		return os.Chmod(dir, 0o700)
	}, privilege.BypassPermissions)
	if err != nil {
		m.removePartial(ctx, dir)
		return nil, wrapUnlessPrivilege(err, "change workspace permissions", dir)
	}

	days, clamped := m.res.ClampDuration(m.caller, opts.DurationDays)
	if clamped {
		observability.WarnContext(ctx, "requested duration exceeds the allowed maximum, clamping",
			logfields.DurationDays(days))
	}

	extensions := m.res.MaxExtensions
	if opts.MaxExtensionsOverride != nil && m.caller.IsAdmin() {
		extensions = *opts.MaxExtensionsOverride
	}

	acct := opts.AcctCode
	if acct == "" {
		acct = m.caller.PrimaryGroup
	}

	rec := &record.Record{
		Workspace:   dir,
		Expiration:  m.now().Add(time.Duration(days) * 24 * time.Hour).Unix(),
		Extensions:  extensions,
		AcctCode:    acct,
		Reminder:    opts.Reminder,
		MailAddress: opts.MailAddress,
	}
	if err := m.records.Write(path, rec); err != nil {
		m.removePartial(ctx, dir)
		return nil, err
	}

	observability.InfoContext(ctx, "created workspace",
		logfields.Owner(owner), logfields.Path(dir),
		logfields.DurationDays(days), logfields.Extensions(extensions))
	return &AllocateResult{
		Directory:  dir,
		Extensions: rec.Extensions,
		Expiration: rec.Expiration,
		Created:    true,
	}, nil
}

// removePartial cleans up a directory created by a failed allocation so no
// orphaned directories survive.
func (m *Manager) removePartial(ctx context.Context, dir string) {
	err := m.bracket.WithElevated(func() error {
		return os.RemoveAll(dir)
	}, privilege.BypassPermissions)
	if err != nil {
		observability.WarnContext(ctx, "could not remove partially created workspace directory",
			logfields.Path(dir), logfields.Error(err))
	}
}

func wrapUnlessPrivilege(err error, operation, path string) error {
	if wserrors.IsCategory(err, wserrors.CategoryPrivilege) {
		return err
	}
	return wserrors.IOFailed(operation, path, err)
}
