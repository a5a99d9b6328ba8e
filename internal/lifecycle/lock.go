package lifecycle

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/commonism/hpc-workspace/internal/privilege"
	"github.com/commonism/hpc-workspace/internal/record"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// lockRecord takes an exclusive advisory lock scoped to one record name and
// holds it for the whole operation. This closes the check-then-create and
// move races between concurrent invocations on the same owner and name.
// Foreign tools ignoring the lock see the original unlocked semantics.
func (m *Manager) lockRecord(owner, name string) (unlock func(), err error) {
	return m.lockEntry(record.EntryName(owner, name))
}

// lockEntry locks an already-formed entry name, live or trashed. Lock files
// stay behind in the database directory: unlinking one while another
// invocation still holds its flock would let a third invocation lock a fresh
// inode under the same path, breaking exclusion. The companion cleaner
// sweeps them together with stale trash.
func (m *Manager) lockEntry(entry string) (unlock func(), err error) {
	lockPath := filepath.Join(m.res.Area.Database, "."+entry+".lock")

	var f *os.File
	err = m.bracket.WithElevated(func() error {
		var openErr error
		f, openErr = os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o664)
		return openErr
	}, privilege.BypassPermissions)
	if err != nil {
		if wserrors.IsCategory(err, wserrors.CategoryPrivilege) {
			return nil, err
		}
		return nil, wserrors.IOFailed("open record lock", lockPath, err)
	}

	// Blocks until a racing invocation finishes; operations are short
	// except the external move, which is bounded by its own timeout.
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, wserrors.IOFailed("lock record", lockPath, err)
	}

	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
