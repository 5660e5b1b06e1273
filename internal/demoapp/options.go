package demoapp

import (
	"time"

	"github.com/sirupsen/logrus"
)

// appOptions holds configuration for an App.
// This is unexported; use Option functions to configure.
type appOptions struct {
	// Users maps accepted e-mail addresses to display names.
	Users map[string]string
	// SessionIdleTimeout is how long a session survives without requests.
	SessionIdleTimeout time.Duration
	// RequestCapacity is the number of requests kept by the recorder.
	RequestCapacity uint64
	// Codes generates one-time login codes.
	Codes func() string
	Logger logrus.FieldLogger
}

// Option configures an App.
type Option func(*appOptions)

// WithUser adds an account that can log in.
func WithUser(email, name string) Option {
	return func(o *appOptions) {
		o.Users[email] = name
	}
}

// WithSessionIdleTimeout sets how long a session survives without requests.
// Default is DefaultSessionIdleTimeout.
func WithSessionIdleTimeout(timeout time.Duration) Option {
	return func(o *appOptions) {
		o.SessionIdleTimeout = timeout
	}
}

// WithRequestCapacity sets the number of recorded requests.
// Default is 1000.
func WithRequestCapacity(capacity uint64) Option {
	return func(o *appOptions) {
		o.RequestCapacity = capacity
	}
}

// WithCodes replaces the random one-time code generator.
func WithCodes(gen func() string) Option {
	return func(o *appOptions) {
		o.Codes = gen
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *appOptions) {
		o.Logger = log
	}
}
