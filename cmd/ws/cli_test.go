package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemainingDays(t *testing.T) {
	orig := nowUnix
	nowUnix = func() int64 { return 1_700_000_000 }
	defer func() { nowUnix = orig }()

	assert.Equal(t, int64(30), remainingDays(1_700_000_000+30*24*3600))
	assert.Equal(t, int64(0), remainingDays(1_700_000_000+3600))
}
