package demoapp

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultSessionIdleTimeout is how long a server side session survives
// without requests.
const DefaultSessionIdleTimeout = 30 * time.Minute

type sessionState struct {
	email      string
	lastActive time.Time
}

// SessionManager tracks logged in users by session ID and drops sessions
// after the idle timeout.
type SessionManager struct {
	sessions   map[uuid.UUID]*sessionState
	sessionsMu sync.RWMutex

	idleTimeout time.Duration
	log         logrus.FieldLogger

	cleanupCtx       context.Context
	cleanupCtxCancel context.CancelFunc
}

// SessionManagerOptions configures a SessionManager
type SessionManagerOptions struct {
	IdleTimeout time.Duration
	Logger      logrus.FieldLogger
}

// NewSessionManager creates a SessionManager and starts the cleanup goroutine
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	idleTimeout := opts.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = DefaultSessionIdleTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	cleanupCtx, cleanupCtxCancel := context.WithCancel(context.Background())

	sm := &SessionManager{
		sessions:         make(map[uuid.UUID]*sessionState),
		idleTimeout:      idleTimeout,
		log:              log,
		cleanupCtx:       cleanupCtx,
		cleanupCtxCancel: cleanupCtxCancel,
	}

	go sm.cleanupLoop()

	return sm
}

// Create starts a session for email and returns its ID.
func (sm *SessionManager) Create(email string) uuid.UUID {
	id := uuid.Must(uuid.NewV4())

	sm.sessionsMu.Lock()
	sm.sessions[id] = &sessionState{email: email, lastActive: time.Now()}
	sm.sessionsMu.Unlock()

	return id
}

// Touch returns the e-mail of a session and marks it active.
func (sm *SessionManager) Touch(id uuid.UUID) (string, bool) {
	sm.sessionsMu.Lock()
	defer sm.sessionsMu.Unlock()

	state, exists := sm.sessions[id]
	if !exists {
		return "", false
	}
	state.lastActive = time.Now()
	return state.email, true
}

// Delete removes a session
func (sm *SessionManager) Delete(id uuid.UUID) {
	sm.sessionsMu.Lock()
	delete(sm.sessions, id)
	sm.sessionsMu.Unlock()
}

// RevokeAll drops every session, as a server restart or a forced logout
// would.
func (sm *SessionManager) RevokeAll() {
	sm.sessionsMu.Lock()
	clear(sm.sessions)
	sm.sessionsMu.Unlock()
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.sessionsMu.RLock()
	defer sm.sessionsMu.RUnlock()
	return len(sm.sessions)
}

// IdleTimeout returns the configured idle timeout duration
func (sm *SessionManager) IdleTimeout() time.Duration {
	return sm.idleTimeout
}

// Close stops the cleanup goroutine and drops all sessions
func (sm *SessionManager) Close() {
	sm.cleanupCtxCancel()
	sm.RevokeAll()
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-sm.cleanupCtx.Done():
			return
		case <-ticker.C:
			sm.cleanupIdleSessions()
		}
	}
}

func (sm *SessionManager) cleanupIdleSessions() {
	now := time.Now()

	sm.sessionsMu.Lock()
	defer sm.sessionsMu.Unlock()

	for id, state := range sm.sessions {
		if idle := now.Sub(state.lastActive); idle > sm.idleTimeout {
			sm.log.WithFields(logrus.Fields{
				"session": id,
				"idle":    idle,
			}).Debug("Expiring idle session")
			delete(sm.sessions, id)
		}
	}
}
