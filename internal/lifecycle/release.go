package lifecycle

import (
	"context"
	"path/filepath"

	"github.com/commonism/hpc-workspace/internal/logfields"
	"github.com/commonism/hpc-workspace/internal/observability"
	"github.com/commonism/hpc-workspace/internal/record"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// Release moves a workspace's record and directory into the area's trash,
// both suffixed with the same epoch timestamp. The timestamp acts as a
// generation label: releasing a recreated workspace of the same name never
// collides with an earlier deletion.
func (m *Manager) Release(ctx context.Context, name string) (trashedName string, err error) {
	owner := m.caller.Username
	ctx = observability.WithOperation(ctx, "release")

	unlock, err := m.lockRecord(owner, name)
	if err != nil {
		return "", err
	}
	defer unlock()

	path := m.records.Path(owner, name)
	rec, err := m.records.Read(path)
	if err != nil {
		return "", err
	}

	epoch := m.now().Unix()
	trashedName = record.TrashedName(owner, name, epoch)

	trashedRecord, err := m.records.MoveToTrash(owner, name, epoch)
	if err != nil {
		return "", err
	}

	// The directory trash lives beside the storage root's workspaces, in
	// the area's deleted subtree.
	target := filepath.Join(filepath.Dir(rec.Workspace), m.res.Area.Deleted, trashedName)
	if err := m.mover.Move(ctx, rec.Workspace, target); err != nil {
		// The record already moved; there is no rollback. Surface both
		// locations so an operator can repair by hand.
		if werr, ok := err.(*wserrors.WorkspaceError); ok {
			return "", werr.
				WithContext("record", trashedRecord).
				WithContext("directory", rec.Workspace)
		}
		return "", err
	}

	observability.InfoContext(ctx, "released workspace",
		logfields.Workspace(name), logfields.Target(target))
	return trashedName, nil
}

// ListRestorable enumerates the caller's trashed workspace names, in
// directory enumeration order.
func (m *Manager) ListRestorable() ([]string, error) {
	return m.records.ListTrashed(m.caller.Username)
}

// Restore reattaches a trashed directory under an existing target workspace
// and deletes the trashed record. The target must have been allocated first;
// restoring into nothing would recreate a workspace without policy passing
// over it.
func (m *Manager) Restore(ctx context.Context, trashedName, targetName string) error {
	owner := m.caller.Username
	ctx = observability.WithOperation(ctx, "restore")

	// Lock the trashed entry before the target so two restores of the same
	// trashed entry serialize. Trashed names carry an epoch suffix and live
	// names do not, so the two locks can never form a cycle.
	unlockTrashed, err := m.lockEntry(trashedName)
	if err != nil {
		return err
	}
	defer unlockTrashed()

	unlock, err := m.lockRecord(owner, targetName)
	if err != nil {
		return err
	}
	defer unlock()

	targetPath := m.records.Path(owner, targetName)
	targetRec, err := m.records.Read(targetPath)
	if err != nil {
		if wserrors.IsCategory(err, wserrors.CategoryNotFound) {
			return wserrors.WorkspaceNotFound(targetName).
				WithContext("reason", "target workspace does not exist")
		}
		return err
	}

	trashedRecordPath := m.records.TrashPath(trashedName)
	trashedRec, err := m.records.Read(trashedRecordPath)
	if err != nil {
		return err
	}

	// The trashed directory sits in the deleted subtree next to where the
	// workspace originally lived, named like its record.
	source := filepath.Join(filepath.Dir(trashedRec.Workspace), m.res.Area.Deleted, trashedName)

	// Move into the target directory, keeping the trashed name as leaf so
	// an existing tree at the target is merged under, not clobbered.
	if err := m.mover.Move(ctx, source, filepath.Join(targetRec.Workspace, trashedName)); err != nil {
		return err
	}

	if err := m.records.Remove(trashedRecordPath); err != nil {
		return err
	}

	observability.InfoContext(ctx, "restored workspace",
		logfields.Source(source), logfields.Target(targetRec.Workspace))
	return nil
}
