package identity

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentResolvesCaller(t *testing.T) {
	id, err := Current()
	require.NoError(t, err)

	assert.NotEmpty(t, id.Username)
	assert.NotEmpty(t, id.PrimaryGroup)
	assert.Equal(t, os.Getuid(), id.UID)
	// The primary group is part of the membership set.
	assert.True(t, id.MemberOf(id.PrimaryGroup))
}

func TestMemberOf(t *testing.T) {
	id := &Identity{Groups: []string{"hpcusers", "wheel"}}
	assert.True(t, id.MemberOf("wheel"))
	assert.False(t, id.MemberOf("staff"))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, (&Identity{UID: 0}).IsAdmin())
	assert.False(t, (&Identity{UID: 1000}).IsAdmin())
}
