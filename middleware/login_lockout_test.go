package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLockoutProgression(t *testing.T) {
	t.Setenv("LOGIN_FREE_ATTEMPTS", "3")
	name := "  Grandpa "
	t.Cleanup(func() { ResetFailedLogin(name) })

	for i := 0; i < 3; i++ {
		RecordFailedLogin(name)
		locked, _ := IsAccountLocked(name)
		assert.False(t, locked, "attempt %d", i+1)
	}

	RecordFailedLogin(name)
	locked, wait := IsAccountLocked("grandpa")
	assert.True(t, locked)
	assert.InDelta(t, time.Minute.Seconds(), wait.Seconds(), 2)

	RecordFailedLogin(name)
	_, wait = IsAccountLocked(name)
	assert.Greater(t, wait, 4*time.Minute)

	ResetFailedLogin("GRANDPA")
	locked, _ = IsAccountLocked(name)
	assert.False(t, locked)
}

func TestLockFor(t *testing.T) {
	t.Setenv("LOGIN_FREE_ATTEMPTS", "5")
	assert.Zero(t, lockFor(5))
	assert.Equal(t, time.Minute, lockFor(6))
	assert.Equal(t, 5*time.Minute, lockFor(7))
	assert.Equal(t, 15*time.Minute, lockFor(8))
	assert.Equal(t, 30*time.Minute, lockFor(20))
}
