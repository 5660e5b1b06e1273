package demoapp

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionManager_Touch_NonExistent(t *testing.T) {
	sm := NewSessionManager(SessionManagerOptions{IdleTimeout: time.Minute})
	defer sm.Close()

	_, ok := sm.Touch(uuid.Must(uuid.NewV4()))
	assert.False(t, ok)
}

func TestSessionManager_CreateAndDelete(t *testing.T) {
	sm := NewSessionManager(SessionManagerOptions{IdleTimeout: time.Minute})
	defer sm.Close()

	id := sm.Create("dealer@example.com")
	email, ok := sm.Touch(id)
	assert.True(t, ok)
	assert.Equal(t, "dealer@example.com", email)

	sm.Delete(id)
	_, ok = sm.Touch(id)
	assert.False(t, ok)
}

func TestSessionManager_DefaultIdleTimeout(t *testing.T) {
	sm := NewSessionManager(SessionManagerOptions{})
	defer sm.Close()

	assert.Equal(t, DefaultSessionIdleTimeout, sm.IdleTimeout())
}

func TestSessionManager_CleanupIdleSessions(t *testing.T) {
	sm := NewSessionManager(SessionManagerOptions{IdleTimeout: time.Hour})
	defer sm.Close()

	idle := sm.Create("idle@example.com")
	active := sm.Create("active@example.com")

	sm.sessionsMu.Lock()
	sm.sessions[idle].lastActive = time.Now().Add(-2 * time.Hour)
	sm.sessionsMu.Unlock()

	sm.cleanupIdleSessions()

	_, ok := sm.Touch(idle)
	assert.False(t, ok)
	_, ok = sm.Touch(active)
	assert.True(t, ok)
}

func TestSessionManager_Close(t *testing.T) {
	sm := NewSessionManager(SessionManagerOptions{IdleTimeout: time.Minute})
	sm.Create("a@example.com")
	sm.Create("b@example.com")

	sm.Close()

	assert.Zero(t, sm.Len())
}
