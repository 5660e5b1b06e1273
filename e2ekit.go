package e2ekit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/dataset"
	"github.com/networkteam/e2ekit/login"
	"github.com/networkteam/e2ekit/otp"
	"github.com/networkteam/e2ekit/pages"
	"github.com/networkteam/e2ekit/session"
)

// ErrSessionUnavailable is returned when no authenticated session could be
// loaded or created. It wraps the underlying cache error.
var ErrSessionUnavailable = errors.New("authenticated session unavailable")

// errSessionRejected means the application did not accept a cached session.
var errSessionRejected = errors.New("session rejected by application")

// sessionCheckTimeout bounds the wait for the dashboard header when probing a
// cached session.
const sessionCheckTimeout = 10 * time.Second

type Suite struct {
	cfg   config.Config
	log   logrus.FieldLogger
	fs    afero.Fs
	cache *session.Cache
	creds session.Credentials
	dirs  browser.Dirs

	artifacts *browser.Artifacts

	authMu      sync.Mutex
	authState   *session.State
	authOutcome session.Outcome
	authErr     error

	launchMu sync.Mutex
	launcher *browser.Launcher

	dataOnce sync.Once
	data     *dataset.Dataset
	dataErr  error
}

type Options struct {
	// Logger for all components.
	// Default: nil, will log to stderr at the configured level
	Logger logrus.FieldLogger
	// Fs holds the session artifact and the test data file.
	// Default: nil, will use the OS filesystem
	Fs afero.Fs
	// Authenticator performs the interactive login.
	// Default: nil, will use a browser based login.Flow
	Authenticator session.Authenticator
	// Codes delivers one-time login codes to the default login flow.
	// Default: nil, will use the configured login code or mailbox URL
	Codes otp.Source
}

// New creates a suite from the configuration with default collaborators.
func New(cfg config.Config) (*Suite, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a suite. Collaborators not given in opts are built
// from the configuration.
func NewWithOptions(cfg config.Config, opts Options) (*Suite, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := opts.Logger
	if log == nil {
		l, err := NewLogger(cfg.LogLevel, os.Stderr)
		if err != nil {
			return nil, err
		}
		log = l
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	creds := session.Credentials{Email: cfg.LoginEmail}
	if cfg.LoginCode != "" {
		creds.Extra = map[string]string{"code": cfg.LoginCode}
	}

	auth := opts.Authenticator
	if auth == nil {
		codes := opts.Codes
		if codes == nil && cfg.MailboxURL != "" {
			codes = &otp.Mailbox{URL: cfg.MailboxURL, Wait: cfg.Timeout}
		}
		auth = login.NewFlow(login.Options{
			BaseURL:  cfg.BaseURL,
			Browser:  launchOptions(cfg),
			Codes:    codes,
			Timeout:  cfg.TimeoutMillis(),
			DebugDir: cfg.ResultsDir,
			Logger:   log,
		})
	}

	dirs := browser.NewDirs(cfg.ResultsDir)

	return &Suite{
		cfg:   cfg,
		log:   log,
		fs:    fs,
		creds: creds,
		dirs:  dirs,
		cache: session.NewCache(session.Options{
			Fs:            fs,
			Path:          cfg.AuthState,
			Authenticator: auth,
			MaxAge:        cfg.SessionMaxAge,
			Logger:        log,
		}),
		artifacts: browser.NewArtifacts(dirs, cfg.Trace, log),
	}, nil
}

// NewLogger returns a text logger writing to out at the given level.
func NewLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l, nil
}

func launchOptions(cfg config.Config) browser.LaunchOptions {
	return browser.LaunchOptions{
		Browser:  cfg.Browser,
		Headless: !cfg.Headed,
		Channel:  cfg.Channel,
	}
}

func (s *Suite) Config() config.Config {
	return s.cfg
}

func (s *Suite) Cache() *session.Cache {
	return s.cache
}

func (s *Suite) Logger() logrus.FieldLogger {
	return s.log
}

// AuthState returns the authenticated session, logging in at most once per
// process. Later callers share the first result, including a failure.
func (s *Suite) AuthState(ctx context.Context) (*session.State, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	if s.authState != nil || s.authErr != nil {
		return s.authState, s.authErr
	}

	state, outcome, err := s.cache.Ensure(ctx, s.creds, s.cfg.RecreateAuth)
	if err != nil {
		s.authErr = fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
		return nil, s.authErr
	}
	s.authState, s.authOutcome = state, outcome

	s.log.WithFields(logrus.Fields{
		"path":    s.cache.Path(),
		"outcome": outcome,
	}).Info("Authenticated session ready")

	return state, nil
}

// AuthOutcome reports whether AuthState reused or created the session.
// It is zero before the first successful AuthState call.
func (s *Suite) AuthOutcome() session.Outcome {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	return s.authOutcome
}

// refreshAuth replaces a session the application rejected. Concurrent
// callers holding the same rejected state trigger a single login.
func (s *Suite) refreshAuth(ctx context.Context, rejected *session.State) (*session.State, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	if s.authState != nil && s.authState != rejected {
		return s.authState, nil
	}

	if err := s.cache.MarkStale("rejected by application"); err != nil {
		s.log.WithError(err).Warn("Could not mark session stale")
	}

	state, _, err := s.cache.Ensure(ctx, s.creds, true)
	if err != nil {
		s.authState = nil
		s.authErr = fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
		return nil, s.authErr
	}
	s.authState, s.authOutcome, s.authErr = state, session.OutcomeCreated, nil

	s.log.WithField("path", s.cache.Path()).Info("Re-created rejected session")
	return state, nil
}

// Mark skips the test unless it carries one of the configured markers.
// Without configured markers every test runs.
func (s *Suite) Mark(t testing.TB, markers ...string) {
	t.Helper()
	if len(s.cfg.Markers) == 0 || lo.Some(markers, s.cfg.Markers) {
		return
	}
	t.Skipf("markers %v not selected (running %v)", markers, s.cfg.Markers)
}

// Data returns the test data set, loaded on first use.
func (s *Suite) Data() (*dataset.Dataset, error) {
	s.dataOnce.Do(func() {
		s.data, s.dataErr = dataset.Load(s.fs, s.cfg.DataFile)
	})
	return s.data, s.dataErr
}

// Record returns a test data record and fails only the calling test if it is
// missing or malformed.
func (s *Suite) Record(t testing.TB, name string) dataset.Record {
	t.Helper()
	data, err := s.Data()
	require.NoError(t, err, "loading test data")
	rec, err := data.Record(name)
	require.NoError(t, err, "reading test data record")
	return rec
}

func (s *Suite) launch() (*browser.Launcher, error) {
	s.launchMu.Lock()
	defer s.launchMu.Unlock()

	if s.launcher != nil {
		return s.launcher, nil
	}
	l, err := browser.Launch(launchOptions(s.cfg), s.log)
	if err != nil {
		return nil, err
	}
	s.launcher = l
	return l, nil
}

// Close releases the shared browser.
func (s *Suite) Close() error {
	s.launchMu.Lock()
	defer s.launchMu.Unlock()

	if s.launcher == nil {
		return nil
	}
	err := s.launcher.Close()
	s.launcher = nil
	return err
}

// Page bundles an isolated browser context with its page objects.
type Page struct {
	Context   playwright.BrowserContext
	Page      playwright.Page
	Base      *pages.Base
	Login     *pages.LoginPage
	Dashboard *pages.DashboardPage
}

// AuthPage opens the dashboard in a fresh context carrying the cached
// session. If the application rejects the session it is recreated once.
// The context is closed and failure evidence stored when the test ends.
func (s *Suite) AuthPage(t testing.TB) *Page {
	t.Helper()
	ctx := context.Background()

	state, err := s.AuthState(ctx)
	require.NoError(t, err)

	p, err := s.openDashboard(t, state)
	if errors.Is(err, errSessionRejected) {
		s.log.WithField("test", t.Name()).Warn("Cached session rejected, logging in again")

		state, err = s.refreshAuth(ctx, state)
		require.NoError(t, err)

		p, err = s.openDashboard(t, state)
	}
	require.NoError(t, err)

	return p
}

// AnonymousPage opens a fresh context without any session.
func (s *Suite) AnonymousPage(t testing.TB) *Page {
	t.Helper()
	p, err := s.open(t, nil)
	require.NoError(t, err)
	return p
}

func (s *Suite) openDashboard(t testing.TB, state *session.State) (*Page, error) {
	p, err := s.open(t, state)
	if err != nil {
		return nil, err
	}
	if err := p.Dashboard.Open(); err != nil {
		return nil, err
	}
	timeout := min(s.cfg.Timeout, sessionCheckTimeout)
	if !p.Dashboard.IsLoggedIn(float64(timeout.Milliseconds())) {
		return nil, errSessionRejected
	}
	return p, nil
}

func (s *Suite) open(t testing.TB, state *session.State) (*Page, error) {
	launcher, err := s.launch()
	if err != nil {
		return nil, err
	}

	opts := browser.ContextOptions{
		State:   state,
		BaseURL: s.cfg.BaseURL,
	}
	if s.cfg.RecordVideo {
		opts.VideoDir = s.dirs.Videos
	}
	if s.cfg.RecordVideo || s.cfg.Trace {
		if err := s.dirs.Create(); err != nil {
			return nil, err
		}
	}

	bctx, err := launcher.NewContext(opts)
	if err != nil {
		return nil, err
	}
	s.artifacts.Start(bctx)

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	page.SetDefaultTimeout(s.cfg.TimeoutMillis())

	t.Cleanup(func() {
		if t.Failed() {
			if err := s.dirs.Create(); err != nil {
				s.log.WithError(err).Warn("Could not create results directories")
			}
		}
		s.artifacts.Finish(t.Name(), bctx, page, t.Failed())
		_ = bctx.Close()
	})

	base := pages.NewBase(page, pages.Options{
		BaseURL:       s.cfg.BaseURL,
		Timeout:       s.cfg.TimeoutMillis(),
		ScreenshotDir: s.dirs.Screenshots,
	})
	return &Page{
		Context:   bctx,
		Page:      page,
		Base:      base,
		Login:     pages.NewLoginPage(base),
		Dashboard: pages.NewDashboardPage(base),
	}, nil
}
