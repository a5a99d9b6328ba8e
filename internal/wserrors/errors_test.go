package wserrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CategoryAuth, SeverityFatal, "access denied")
	assert.Equal(t, "auth (fatal): access denied", err.Error())

	wrapped := Wrap(errors.New("EACCES"), CategoryIO, SeverityFatal, "write failed")
	assert.Equal(t, "io (fatal): write failed: EACCES", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "EACCES")
}

func TestCategoryHelpers(t *testing.T) {
	err := WorkspaceNotFound("alice-proj1")
	assert.True(t, IsCategory(err, CategoryNotFound))
	assert.False(t, IsCategory(err, CategoryAuth))
	assert.Equal(t, CategoryNotFound, GetCategory(err))
	assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
}

func TestWithContext(t *testing.T) {
	err := AreaNotAllowed("priv", "mallory")
	assert.Equal(t, "priv", err.Context["area"])
	assert.Equal(t, "mallory", err.Context["user"])
}

// Exit codes are part of the tool's scripting contract; each failure class
// must stay distinguishable.
func TestExitCodesAreDistinctPerCategory(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	codes := map[ErrorCategory]int{
		CategoryValidation: 2,
		CategoryNotFound:   3,
		CategoryAuth:       5,
		CategoryPrivilege:  6,
		CategoryConfig:     7,
		CategoryInternal:   10,
		CategoryIO:         11,
	}
	for category, want := range codes {
		got := adapter.ExitCodeFor(New(category, SeverityFatal, "x"))
		assert.Equal(t, want, got, "category %s", category)
	}

	assert.Equal(t, 0, adapter.ExitCodeFor(nil))
	assert.Equal(t, 1, adapter.ExitCodeFor(errors.New("plain")))
}

func TestFormatErrorVerbosity(t *testing.T) {
	err := ConfigNotFound("/etc/ws.conf")

	terse := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "configuration file not found", terse.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Contains(t, verbose.FormatError(err), "config (fatal)")
}
