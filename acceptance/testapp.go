//go:build acceptance
// +build acceptance

package acceptance

import (
	"net/http/httptest"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/networkteam/e2ekit/internal/demoapp"
	"github.com/networkteam/e2ekit/otp"
)

// TestApp is the demo dealer portal served on a local port.
type TestApp struct {
	App    *demoapp.App
	Server *httptest.Server
	URL    string
}

// StartTestApp serves a demo application with the given accounts (e-mail to
// display name).
func StartTestApp(users map[string]string, log logrus.FieldLogger) *TestApp {
	opts := []demoapp.Option{demoapp.WithLogger(log)}
	for email, name := range users {
		opts = append(opts, demoapp.WithUser(email, name))
	}
	app := demoapp.New(opts...)
	srv := httptest.NewServer(app)

	return &TestApp{App: app, Server: srv, URL: srv.URL}
}

// Codes returns a one-time code source reading the app's mailbox.
func (a *TestApp) Codes() otp.Source {
	return &otp.Mailbox{
		URL:      a.URL + demoapp.MailPath,
		Wait:     5 * time.Second,
		Interval: 100 * time.Millisecond,
	}
}

func (a *TestApp) Close() {
	a.Server.Close()
	a.App.Close()
}
