//go:build acceptance
// +build acceptance

package acceptance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/pages"
)

// TestLoginRequired verifies that the dashboard redirects to the login form
// without a session.
func TestLoginRequired(t *testing.T) {
	t.Parallel()
	suite.Mark(t, "smoke", "login")

	WithAnonymousPage(t, func(t *testing.T, f *TestFixtures) {
		require.NoError(t, f.Dashboard.Open())

		assert.False(t, f.Dashboard.IsLoggedIn(2_000))
		assert.True(t, strings.HasSuffix(strings.TrimRight(f.Page.Base.URL(), "/"), pages.LoginPath))
		assert.True(t, f.Login.IsVisible(pages.EmailInputSelector, 0))
	})
}

// TestLoginUnknownEmail submits an address without account and expects the
// form error from the test data.
func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()
	suite.Mark(t, "login")

	rec := suite.Record(t, "unknown_user")
	email, err := rec.String("email")
	require.NoError(t, err)
	wantErr, err := rec.String("error")
	require.NoError(t, err)

	WithAnonymousPage(t, func(t *testing.T, f *TestFixtures) {
		// The code step never appears, do not wait the full timeout for it.
		login := pages.NewLoginPage(pages.NewBase(f.Page.Page, pages.Options{
			BaseURL: suite.Config().BaseURL,
			Timeout: 5_000,
		}))
		require.NoError(t, login.Open())

		err := login.SubmitEmail(email)
		assert.Error(t, err)
		assert.Contains(t, login.ErrorText(), wantErr)
	})
}

// TestLoginPageFromHome follows the login link on the home page.
func TestLoginPageFromHome(t *testing.T) {
	t.Parallel()
	suite.Mark(t, "login")
	requireDemo(t)

	WithAnonymousPage(t, func(t *testing.T, f *TestFixtures) {
		require.NoError(t, f.Page.Base.Goto("/"))
		require.NoError(t, f.Login.SafeClick(pages.LoginLinkSelector))
		require.NoError(t, f.Login.WaitFor(pages.EmailInputSelector, nil))
		assert.Contains(t, f.Login.URL(), pages.LoginPath)
	})
}
