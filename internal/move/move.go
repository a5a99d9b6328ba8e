// Package move relocates a directory tree to a new path. A privileged
// rename is atomic within one filesystem; when the move crosses a mount
// boundary the kernel refuses with EXDEV and an external recursive move is
// spawned instead. The fallback is not atomic: a failure partway through can
// leave data split between source and destination. Callers surface that as
// an error, they cannot hide it.
package move

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"github.com/commonism/hpc-workspace/internal/logfields"
	"github.com/commonism/hpc-workspace/internal/privilege"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// DefaultMoverPath is the external recursive-move helper. A plain execl,
// never a shell: the binary may run setuid.
const DefaultMoverPath = "/bin/mv"

// Mover moves directory trees under the privilege bracket.
type Mover struct {
	bracket privilege.Bracket
	timeout time.Duration

	// moverPath is overridable for tests.
	moverPath string
}

// NewMover creates a mover. timeout bounds the external fallback only; the
// rename path is a single syscall.
func NewMover(bracket privilege.Bracket, timeout time.Duration) *Mover {
	return &Mover{bracket: bracket, timeout: timeout, moverPath: DefaultMoverPath}
}

// Move relocates source to target, privileged rename first, external move
// on EXDEV.
func (m *Mover) Move(ctx context.Context, source, target string) error {
	var renameErr error
	err := m.bracket.WithElevated(func() error {
		renameErr = os.Rename(source, target)
		return nil
	}, privilege.BypassPermissions)
	if err != nil {
		return err
	}
	if renameErr == nil {
		return nil
	}

	if !crossesFilesystem(renameErr) {
		return wserrors.MoveFailed(source, target, renameErr)
	}

	slog.Debug("rename crossed a filesystem boundary, spawning external move",
		logfields.Source(source), logfields.Target(target))
	return m.external(ctx, source, target)
}

// external spawns the recursive move helper and waits for it, bounded by
// the configured timeout.
func (m *Mover) external(ctx context.Context, source, target string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.bracket.WithElevated(func() error {
		cmd := exec.CommandContext(ctx, m.moverPath, source, target)
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}, privilege.BypassPermissions)
	if err == nil {
		return nil
	}
	if wserrors.IsCategory(err, wserrors.CategoryPrivilege) {
		return err
	}
	if ctx.Err() != nil {
		// Timeout killed the child. The tree may now be split between
		// source and target.
		return wserrors.MoveFailed(source, target, ctx.Err()).
			WithContext("reason", "external move timed out")
	}
	return wserrors.MoveFailed(source, target, err)
}

// crossesFilesystem reports whether a rename failed with EXDEV.
func crossesFilesystem(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
