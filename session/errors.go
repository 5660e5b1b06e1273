package session

import "errors"

var (
	// ErrNotFound is returned when no session artifact is stored.
	ErrNotFound = errors.New("session artifact not found")
	// ErrCorrupt is returned when the stored artifact cannot be parsed.
	ErrCorrupt = errors.New("session artifact corrupt")
	// ErrNoAuthenticator is returned by Create when the cache has no way to log in.
	ErrNoAuthenticator = errors.New("no authenticator configured")
)

// LoginError wraps a failure of the interactive login. It is fatal for the
// current run.
type LoginError struct {
	Err error
}

func (e *LoginError) Error() string {
	return "interactive login failed: " + e.Err.Error()
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
