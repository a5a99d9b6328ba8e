package privilege

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonism/hpc-workspace/internal/wserrors"
)

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "dac_override", BypassPermissions.String())
	assert.Equal(t, "chown", ChangeOwnership.String())
}

func TestNopBracketRunsBody(t *testing.T) {
	ran := false
	err := NopBracket{}.WithElevated(func() error {
		ran = true
		return nil
	}, BypassPermissions)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestNopBracketPropagatesBodyError(t *testing.T) {
	boom := errors.New("boom")
	err := NopBracket{}.WithElevated(func() error { return boom }, ChangeOwnership)
	assert.ErrorIs(t, err, boom)
}

// recordingBracket asserts the bracket discipline components rely on: the
// body runs between exactly one raise and one lower, also when it fails.
type recordingBracket struct {
	events []string
}

func (r *recordingBracket) WithElevated(body func() error, caps ...Capability) (err error) {
	for _, c := range caps {
		r.events = append(r.events, "raise:"+c.String())
	}
	defer func() {
		for _, c := range caps {
			r.events = append(r.events, "lower:"+c.String())
		}
	}()
	return body()
}

func TestBracketLowersOnBodyError(t *testing.T) {
	b := &recordingBracket{}
	boom := errors.New("mutation failed")

	err := b.WithElevated(func() error { return boom }, BypassPermissions)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"raise:dac_override", "lower:dac_override"}, b.events)
}

func TestSetuidBracketWithoutPrivilege(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("requires an unprivileged caller")
	}
	b := &SetuidBracket{ServiceUID: os.Getuid()}

	// Raising to root must fail with EPERM and surface as a privilege
	// error; the body must never run.
	ran := false
	err := b.WithElevated(func() error {
		ran = true
		return nil
	}, BypassPermissions)
	require.Error(t, err)
	assert.True(t, wserrors.IsCategory(err, wserrors.CategoryPrivilege))
	assert.False(t, ran)

	// Lowering to the identity the process already holds is permitted.
	require.NoError(t, b.DropToMinimum())
}

func TestBracketLowersOnPanic(t *testing.T) {
	b := &recordingBracket{}

	func() {
		defer func() { _ = recover() }()
		_ = b.WithElevated(func() error { panic("mutation panicked") }, ChangeOwnership)
	}()

	assert.Equal(t, []string{"raise:chown", "lower:chown"}, b.events)
}
