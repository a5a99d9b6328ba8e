package record

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/commonism/hpc-workspace/internal/logfields"
	"github.com/commonism/hpc-workspace/internal/privilege"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// Store reads and writes the record files of one area's database directory.
// All mutations run under the privilege bracket; reads do not, the database
// directory is group-readable by design (startup umask).
type Store struct {
	dir     string // database directory
	deleted string // trash subdirectory name
	dbuid   int
	dbgid   int
	bracket privilege.Bracket
}

// NewStore binds a store to one area's database directory.
func NewStore(dir, deleted string, dbuid, dbgid int, bracket privilege.Bracket) *Store {
	return &Store{dir: dir, deleted: deleted, dbuid: dbuid, dbgid: dbgid, bracket: bracket}
}

// EntryName composes the record filename of a live workspace.
func EntryName(owner, name string) string {
	return owner + "-" + name
}

// TrashedName composes the record filename of a trashed workspace. The epoch
// timestamp disambiguates trash generations of the same workspace name.
func TrashedName(owner, name string, epoch int64) string {
	return fmt.Sprintf("%s-%s-%d", owner, name, epoch)
}

// Path returns the record path of a live workspace.
func (s *Store) Path(owner, name string) string {
	return filepath.Join(s.dir, EntryName(owner, name))
}

// TrashDir returns the directory holding trashed records.
func (s *Store) TrashDir() string {
	return filepath.Join(s.dir, s.deleted)
}

// TrashPath returns the record path of a trashed workspace.
func (s *Store) TrashPath(trashedName string) string {
	return filepath.Join(s.TrashDir(), trashedName)
}

// Exists reports whether a record file is present.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Read deserializes a record. A missing file is NotFound, a malformed one
// Corrupt; both abort the calling operation.
func (s *Store) Read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wserrors.WorkspaceNotFound(filepath.Base(path))
		}
		return nil, wserrors.IOFailed("read record", path, err)
	}
	return Unmarshal(path, data)
}

// Write serializes the record while privileged, then transfers ownership to
// the service identity. A chown failure is reported but does not roll back
// the write; the record content is already correct.
func (s *Store) Write(path string, rec *Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return err
	}

	err = s.bracket.WithElevated(func() error {
		return os.WriteFile(path, data, 0o644)
	}, privilege.BypassPermissions)
	if err != nil {
		if wserrors.IsCategory(err, wserrors.CategoryPrivilege) {
			return err
		}
		return wserrors.IOFailed("write record", path, err)
	}

	err = s.bracket.WithElevated(func() error {
		return os.Chown(path, s.dbuid, s.dbgid)
	}, privilege.ChangeOwnership)
	if err != nil {
		slog.Warn("could not change owner of workspace record",
			logfields.Path(path), logfields.Error(err))
	}
	return nil
}

// MoveToTrash renames a live record into the trash directory under the
// timestamped name. Record moves never cross filesystems; the trash lives
// inside the database directory.
func (s *Store) MoveToTrash(owner, name string, epoch int64) (string, error) {
	source := s.Path(owner, name)
	target := s.TrashPath(TrashedName(owner, name, epoch))

	err := s.bracket.WithElevated(func() error {
		return os.Rename(source, target)
	}, privilege.BypassPermissions)
	if err != nil {
		if wserrors.IsCategory(err, wserrors.CategoryPrivilege) {
			return "", err
		}
		return "", wserrors.MoveFailed(source, target, err)
	}
	return target, nil
}

// Remove unlinks a record file while privileged.
func (s *Store) Remove(path string) error {
	err := s.bracket.WithElevated(func() error {
		return os.Remove(path)
	}, privilege.BypassPermissions)
	if err != nil {
		if wserrors.IsCategory(err, wserrors.CategoryPrivilege) {
			return err
		}
		return wserrors.IOFailed("remove record", path, err)
	}
	return nil
}

// ListTrashed enumerates trashed record names of one owner, in directory
// enumeration order.
func (s *Store) ListTrashed(owner string) ([]string, error) {
	entries, err := os.ReadDir(s.TrashDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wserrors.IOFailed("list trash", s.TrashDir(), err)
	}

	prefix := owner + "-"
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
