//go:build acceptance
// +build acceptance

package acceptance

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/pages"
)

// TestFixtures bundles all commonly needed test fixtures.
type TestFixtures struct {
	Page      *e2ekit.Page
	Login     *pages.LoginPage
	Dashboard *pages.DashboardPage
}

// WithAuthPage opens the dashboard with the shared session and calls the test
// function. Cleanup and failure evidence are registered with t.Cleanup().
func WithAuthPage(t *testing.T, fn func(t *testing.T, f *TestFixtures)) {
	t.Helper()

	p := suite.AuthPage(t)
	fn(t, &TestFixtures{Page: p, Login: p.Login, Dashboard: p.Dashboard})
}

// WithAnonymousPage opens a page without any session.
func WithAnonymousPage(t *testing.T, fn func(t *testing.T, f *TestFixtures)) {
	t.Helper()

	p := suite.AnonymousPage(t)
	fn(t, &TestFixtures{Page: p, Login: p.Login, Dashboard: p.Dashboard})
}

// NewTestApp starts a demo application owned by a single test.
func NewTestApp(t *testing.T, users map[string]string) *TestApp {
	t.Helper()
	app := StartTestApp(users, suite.Logger())
	t.Cleanup(app.Close)
	return app
}

// requireDemo skips tests that need to observe the application under test.
func requireDemo(t *testing.T) {
	t.Helper()
	if demo == nil {
		t.Skip("needs the demo application, run with --demo")
	}
}

// isolatedSuite creates a suite against app with its own session artifact, so
// tests can observe logins without touching the shared session.
func isolatedSuite(t *testing.T, app *TestApp, modify func(*config.Config)) *e2ekit.Suite {
	t.Helper()

	cfg := baseConfig
	cfg.BaseURL = app.URL
	cfg.AuthState = filepath.Join(t.TempDir(), "auth.json")
	cfg.RecreateAuth = false
	if modify != nil {
		modify(&cfg)
	}

	s, err := e2ekit.NewWithOptions(cfg, e2ekit.Options{
		Logger: suite.Logger(),
		Codes:  app.Codes(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// withArtifact points a suite at an existing artifact path.
func withArtifact(path string) func(*config.Config) {
	return func(c *config.Config) {
		c.AuthState = path
	}
}
