//go:build acceptance
// +build acceptance

package acceptance

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/pages"
)

// TestDashboardGreeting verifies that the cached session lands on the
// dashboard with the personal greeting.
func TestDashboardGreeting(t *testing.T) {
	t.Parallel()
	suite.Mark(t, "smoke")

	user := suite.Record(t, standardUser)
	name, err := user.String("name")
	require.NoError(t, err)

	WithAuthPage(t, func(t *testing.T, f *TestFixtures) {
		greeting, err := f.Dashboard.Greeting()
		require.NoError(t, err)
		assert.Equal(t, "Welcome back "+name+"!", greeting)
	})
}

// TestDashboardNavLinks visits every main navigation link.
func TestDashboardNavLinks(t *testing.T) {
	t.Parallel()
	suite.Mark(t, "nav")

	labels, err := suite.Record(t, "navigation").Strings("links")
	require.NoError(t, err)
	require.ElementsMatch(t, lo.Keys(pages.NavLinks), labels)

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			t.Parallel()

			WithAuthPage(t, func(t *testing.T, f *TestFixtures) {
				require.NoError(t, f.Dashboard.VisitNavLink(label))
				assert.True(t, f.Dashboard.IsLoggedIn(0), "dashboard should be shown after going back")
			})
		})
	}
}

// TestDashboardAccountName opens the profile through the account menu.
func TestDashboardAccountName(t *testing.T) {
	t.Parallel()
	suite.Mark(t, "account")

	name, err := suite.Record(t, standardUser).String("name")
	require.NoError(t, err)

	WithAuthPage(t, func(t *testing.T, f *TestFixtures) {
		got, err := f.Dashboard.AccountName()
		require.NoError(t, err)
		assert.Equal(t, name, got)
	})
}

// TestDashboardStorage verifies that cookies and local storage from the
// session artifact reach the browser.
func TestDashboardStorage(t *testing.T) {
	t.Parallel()
	suite.Mark(t, "smoke")

	WithAuthPage(t, func(t *testing.T, f *TestFixtures) {
		cookies, err := f.Dashboard.Cookies()
		require.NoError(t, err)
		assert.NotEmpty(t, cookies)

		if demo == nil {
			return
		}
		storage, err := f.Dashboard.LocalStorage()
		require.NoError(t, err)
		assert.Contains(t, storage, "dealer")
	})
}
