package record

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonism/hpc-workspace/internal/privilege"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".removed"), 0o755))
	// Chown to self so the unprivileged test run does not need CAP_CHOWN.
	return NewStore(dir, ".removed", os.Getuid(), os.Getgid(), privilege.NopBracket{})
}

func sampleRecord() *Record {
	return &Record{
		Workspace:   "/scratch/a/alice-proj1",
		Expiration:  1767225600,
		Extensions:  3,
		AcctCode:    "hpcusers",
		Reminder:    0,
		MailAddress: "",
	}
}

func TestStoreWriteRead(t *testing.T) {
	s := newTestStore(t)
	path := s.Path("alice", "proj1")

	require.NoError(t, s.Write(path, sampleRecord()))
	assert.True(t, s.Exists(path))

	got, err := s.Read(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), got)
}

func TestStoreReadMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Read(s.Path("alice", "ghost"))
	require.Error(t, err)
	assert.True(t, wserrors.IsCategory(err, wserrors.CategoryNotFound))
}

func TestStoreMoveToTrash(t *testing.T) {
	s := newTestStore(t)
	path := s.Path("alice", "proj1")
	require.NoError(t, s.Write(path, sampleRecord()))

	target, err := s.MoveToTrash("alice", "proj1", 1700000000)
	require.NoError(t, err)
	assert.False(t, s.Exists(path))
	assert.True(t, s.Exists(target))
	assert.Equal(t, s.TrashPath("alice-proj1-1700000000"), target)
}

func TestStoreTrashGenerationsDoNotCollide(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Write(s.Path("alice", "proj1"), sampleRecord()))
	_, err := s.MoveToTrash("alice", "proj1", 1700000000)
	require.NoError(t, err)

	// Same name released again later stays addressable by its own epoch.
	require.NoError(t, s.Write(s.Path("alice", "proj1"), sampleRecord()))
	_, err = s.MoveToTrash("alice", "proj1", 1700000500)
	require.NoError(t, err)

	names, err := s.ListTrashed("alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice-proj1-1700000000", "alice-proj1-1700000500"}, names)
}

func TestStoreListTrashedFiltersByOwner(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(s.TrashPath("alice-proj1-1"), sampleRecord()))
	require.NoError(t, s.Write(s.TrashPath("bob-proj1-1"), sampleRecord()))

	names, err := s.ListTrashed("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice-proj1-1"}, names)
}

func TestStoreRemove(t *testing.T) {
	s := newTestStore(t)
	path := s.TrashPath("alice-proj1-1")
	require.NoError(t, s.Write(path, sampleRecord()))
	require.NoError(t, s.Remove(path))
	assert.False(t, s.Exists(path))
}
