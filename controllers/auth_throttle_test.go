package controllers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The throttle helpers hold no database state, so they are tested
// without a Mongo connection.

func TestLoginThrottle(t *testing.T) {
	ac := NewAuthController(nil, nil)

	assert.False(t, ac.isLoginThrottled("jane@example.com"))

	for i := 0; i < 4; i++ {
		ac.recordFailedLogin("jane@example.com")
	}
	assert.False(t, ac.isLoginThrottled("jane@example.com"), "four failures stay under the limit")

	ac.recordFailedLogin("jane@example.com")
	assert.True(t, ac.isLoginThrottled("jane@example.com"))

	// Other accounts are unaffected
	assert.False(t, ac.isLoginThrottled("bob@example.com"))

	// A successful login resets the counter
	ac.clearLoginAttempts("jane@example.com")
	assert.False(t, ac.isLoginThrottled("jane@example.com"))
}

// TestLoginThrottle_ConcurrentFailures verifies no increments are lost
// when failures for the same email race.
func TestLoginThrottle_ConcurrentFailures(t *testing.T) {
	ac := NewAuthController(nil, nil)

	const failures = 64
	var wg sync.WaitGroup
	for i := 0; i < failures; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ac.recordFailedLogin("jane@example.com")
		}()
	}
	wg.Wait()

	ac.loginAttemptsMu.RLock()
	count := ac.loginAttempts["jane@example.com"].count
	ac.loginAttemptsMu.RUnlock()
	assert.Equal(t, failures, count)
}
