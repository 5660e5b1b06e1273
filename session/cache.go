package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Credentials are handed to the Authenticator for an interactive login.
type Credentials struct {
	Email    string
	Password string
	// Extra carries flow specific values, e.g. a fixed one-time code.
	Extra map[string]string
}

// Authenticator performs an interactive login and returns the resulting
// browser state.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*State, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (*State, error)

func (f AuthenticatorFunc) Login(ctx context.Context, creds Credentials) (*State, error) {
	return f(ctx, creds)
}

// Outcome describes how Ensure obtained the state.
type Outcome int

const (
	OutcomeReused Outcome = iota + 1
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReused:
		return "reused"
	case OutcomeCreated:
		return "created"
	default:
		return "unknown"
	}
}

// Options configures a Cache.
type Options struct {
	// Fs is the filesystem holding the artifact.
	// Default: afero.NewOsFs()
	Fs afero.Fs
	// Path is the artifact location, e.g. "results/auth.json".
	Path string
	// Authenticator performs the login in Create.
	Authenticator Authenticator
	// MaxAge makes artifacts older than this invalid.
	// Default: 0, artifacts never expire by age
	MaxAge time.Duration
	// Logger receives cache events.
	// Default: nil, logs are discarded
	Logger logrus.FieldLogger
	// Now overrides the clock for tests.
	Now func() time.Time
}

// Cache persists a login session so that test runs can skip the interactive
// login. Operations on one Cache are serialized; separate processes share the
// artifact file.
type Cache struct {
	store  *Store
	auth   Authenticator
	maxAge time.Duration
	log    logrus.FieldLogger
	now    func() time.Time

	mu sync.Mutex
}

// NewCache creates a cache with the given options.
func NewCache(opts Options) *Cache {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	store := NewStore(fs, opts.Path)
	return &Cache{
		store:  store,
		auth:   opts.Authenticator,
		maxAge: opts.MaxAge,
		log:    log.WithField("path", store.Path()),
		now:    now,
	}
}

// Path returns the artifact location.
func (c *Cache) Path() string {
	return c.store.Path()
}

// HasValidSession reports whether a usable artifact is stored and has not
// been marked stale.
func (c *Cache) HasValidSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.validLocked()
	return err == nil
}

func (c *Cache) validLocked() (*State, error) {
	if c.store.IsStale() {
		return nil, errors.New("marked stale")
	}
	state, err := c.store.Read()
	if err != nil {
		return nil, err
	}
	now := c.now()
	if c.maxAge > 0 && state.Age(now) > c.maxAge {
		return nil, fmt.Errorf("older than %s", c.maxAge)
	}
	if state.Expired(now) {
		return nil, errors.New("all cookies expired")
	}
	return state, nil
}

// Load reads the stored artifact. It fails with ErrNotFound if there is none
// and with ErrCorrupt if it is malformed.
func (c *Cache) Load() (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Read()
}

// Create logs in through the Authenticator and replaces the stored artifact
// with the resulting state.
func (c *Cache) Create(ctx context.Context, creds Credentials) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.createLocked(ctx, creds)
}

func (c *Cache) createLocked(ctx context.Context, creds Credentials) (*State, error) {
	if c.auth == nil {
		return nil, ErrNoAuthenticator
	}

	c.log.Info("Creating new session artifact")
	state, err := c.auth.Login(ctx, creds)
	if err != nil {
		return nil, &LoginError{Err: err}
	}
	if state == nil {
		return nil, &LoginError{Err: errors.New("authenticator returned no state")}
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = c.now().UTC()
	}

	if err := c.store.Write(state); err != nil {
		return nil, err
	}
	if err := c.store.ClearStale(); err != nil {
		return nil, err
	}

	c.log.WithField("cookies", len(state.Cookies)).Info("Stored session artifact")
	return state, nil
}

// Invalidate removes the stored artifact so the next Load fails and a new
// session has to be created.
func (c *Cache) Invalidate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Debug("Invalidating session artifact")
	return c.store.Remove()
}

// MarkStale flags the artifact as no longer authenticating. It stays on disk
// but HasValidSession reports false until it is recreated.
func (c *Cache) MarkStale(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.WithField("reason", reason).Warn("Marking session artifact stale")
	return c.store.MarkStale(reason)
}

// Ensure returns a usable state. With recreate set, the artifact is
// invalidated and a new login is performed regardless of its freshness.
// Otherwise a valid artifact is reused and a missing, corrupt or stale one is
// replaced.
func (c *Cache) Ensure(ctx context.Context, creds Credentials, recreate bool) (*State, Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if recreate {
		c.log.Info("Recreating session artifact on request")
		if err := c.store.Remove(); err != nil {
			return nil, 0, err
		}
	} else {
		state, err := c.validLocked()
		if err == nil {
			c.log.Info("Using existing session artifact")
			return state, OutcomeReused, nil
		}
		c.log.WithError(err).Info("Session artifact not usable")
	}

	state, err := c.createLocked(ctx, creds)
	if err != nil {
		return nil, 0, err
	}
	return state, OutcomeCreated, nil
}
