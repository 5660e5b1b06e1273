package demoapp_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/internal/demoapp"
	"github.com/networkteam/e2ekit/otp"
)

const (
	testEmail = "dealer@example.com"
	testName  = "Quinn Dealer"
)

func newTestServer(t *testing.T, opts ...demoapp.Option) (*demoapp.App, *httptest.Server) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := demoapp.New(append([]demoapp.Option{
		demoapp.WithUser(testEmail, testName),
		demoapp.WithLogger(logger),
	}, opts...)...)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	return app, srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func login(t *testing.T, client *http.Client, srv *httptest.Server) *http.Response {
	t.Helper()

	resp, err := client.PostForm(srv.URL+demoapp.LoginPath, url.Values{"email": {testEmail}})
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `placeholder="6-digit code"`)

	mailbox := &otp.Mailbox{URL: srv.URL + demoapp.MailPath}
	code, err := mailbox.LatestCode(context.Background(), testEmail)
	require.NoError(t, err)

	resp, err = client.PostForm(srv.URL+demoapp.VerifyPath, url.Values{"email": {testEmail}, "code": {code}})
	require.NoError(t, err)
	return resp
}

func TestApp_DashboardRequiresLogin(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := newClient(t).Get(srv.URL + demoapp.DashboardPath)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, demoapp.LoginPath, resp.Request.URL.Path)
	assert.Contains(t, body, `name="email"`)
	assert.NotContains(t, body, "Welcome back")
}

func TestApp_Login(t *testing.T) {
	app, srv := newTestServer(t)
	client := newClient(t)

	resp := login(t, client, srv)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, demoapp.DashboardPath, resp.Request.URL.Path)
	assert.Contains(t, body, `<h2 class="welcome">Welcome back Quinn Dealer!</h2>`)
	assert.Contains(t, body, `localStorage.setItem("dealer"`)
	assert.Equal(t, 1, app.LoginCount())
	assert.Equal(t, 1, app.Sessions().Len())

	u, _ := url.Parse(srv.URL)
	cookies := client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, demoapp.SessionCookie, cookies[0].Name)

	// A second visit with the same cookie does not log in again.
	resp, err := client.Get(srv.URL + demoapp.DashboardPath)
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Welcome back")
	assert.Equal(t, 1, app.LoginCount())
}

func TestApp_UnknownEmail(t *testing.T) {
	app, srv := newTestServer(t)

	resp, err := newClient(t).PostForm(srv.URL+demoapp.LoginPath, url.Values{"email": {"nobody@example.com"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, `class="textfield-error"`)
	assert.Zero(t, app.Mailbox().Len())
}

func TestApp_WrongCode(t *testing.T) {
	app, srv := newTestServer(t, demoapp.WithCodes(func() string { return "123456" }))
	client := newClient(t)

	resp, err := client.PostForm(srv.URL+demoapp.LoginPath, url.Values{"email": {testEmail}})
	require.NoError(t, err)
	readBody(t, resp)

	resp, err = client.PostForm(srv.URL+demoapp.VerifyPath, url.Values{"email": {testEmail}, "code": {"654321"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "The code is invalid")
	assert.Zero(t, app.Sessions().Len())

	// The pending code stays usable after a typo.
	resp, err = client.PostForm(srv.URL+demoapp.VerifyPath, url.Values{"email": {testEmail}, "code": {"123456"}})
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Welcome back")
}

func TestApp_RevokedSessionRedirects(t *testing.T) {
	app, srv := newTestServer(t)
	client := newClient(t)
	readBody(t, login(t, client, srv))

	app.Sessions().RevokeAll()

	resp, err := client.Get(srv.URL + demoapp.DashboardPath)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, demoapp.LoginPath, resp.Request.URL.Path)
}

func TestApp_IdleSessionExpires(t *testing.T) {
	app, srv := newTestServer(t, demoapp.WithSessionIdleTimeout(50*time.Millisecond))
	client := newClient(t)
	readBody(t, login(t, client, srv))

	assert.Eventually(t, func() bool {
		return app.Sessions().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := client.Get(srv.URL + demoapp.DashboardPath)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, demoapp.LoginPath, resp.Request.URL.Path)
}

func TestApp_Logout(t *testing.T) {
	app, srv := newTestServer(t)
	client := newClient(t)
	readBody(t, login(t, client, srv))

	resp, err := client.Get(srv.URL + demoapp.LogoutPath)
	require.NoError(t, err)
	readBody(t, resp)

	assert.Equal(t, demoapp.LoginPath, resp.Request.URL.Path)
	assert.Zero(t, app.Sessions().Len())
}

func TestApp_ProfileAndNavPages(t *testing.T) {
	_, srv := newTestServer(t)
	client := newClient(t)
	readBody(t, login(t, client, srv))

	resp, err := client.Get(srv.URL + demoapp.ProfilePath)
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "<div>Name<span>Quinn Dealer</span></div>")

	resp, err = client.Get(srv.URL + "/pages/rep-maps")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "<h1>Rep Maps</h1>")
}

func TestApp_MailboxEmpty(t *testing.T) {
	_, srv := newTestServer(t)

	mailbox := &otp.Mailbox{URL: srv.URL + demoapp.MailPath}
	_, err := mailbox.LatestCode(context.Background(), testEmail)
	assert.ErrorIs(t, err, otp.ErrNoCode)
}
