// Package login performs the interactive dealer login and captures the
// resulting browser state for the session cache.
package login

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/otp"
	"github.com/networkteam/e2ekit/pages"
	"github.com/networkteam/e2ekit/session"
)

// DesktopUserAgent is sent during the login to look like a regular browser.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// ErrNoCode is returned when the code source has no code for the recipient.
var ErrNoCode = errors.New("unable to get the one-time code")

// Options configures a Flow.
type Options struct {
	BaseURL string
	// Browser is launched for the login only.
	Browser browser.LaunchOptions
	// Codes delivers the one-time code. Credentials.Extra["code"] takes
	// precedence when set.
	Codes otp.Source
	// Timeout for each step in milliseconds.
	// Default: pages.DefaultTimeout
	Timeout float64
	// DebugDir receives auth-debug.html when the login fails.
	DebugDir string
	Logger   logrus.FieldLogger
}

// Flow logs in through the browser. It implements session.Authenticator.
type Flow struct {
	opts Options
	log  logrus.FieldLogger
}

var _ session.Authenticator = (*Flow)(nil)

// NewFlow creates a login flow.
func NewFlow(opts Options) *Flow {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Flow{opts: opts, log: log.WithField("component", "login")}
}

// Login launches a browser, performs the login and returns the captured state.
func (f *Flow) Login(ctx context.Context, creds session.Credentials) (*session.State, error) {
	launcher, err := browser.Launch(f.opts.Browser, f.log)
	if err != nil {
		return nil, err
	}
	defer launcher.Close()

	bctx, err := launcher.NewContext(browser.ContextOptions{
		NoViewport: !f.opts.Browser.Headless,
		UserAgent:  DesktopUserAgent,
	})
	if err != nil {
		return nil, err
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	if err := page.AddInitScript(playwright.Script{Content: playwright.String(hideWebdriverScript)}); err != nil {
		return nil, fmt.Errorf("adding init script: %w", err)
	}

	if err := f.run(ctx, page, creds); err != nil {
		f.writeDebug(page)
		return nil, err
	}

	state, err := browser.CaptureState(bctx)
	if err != nil {
		return nil, err
	}
	state.BaseURL = f.opts.BaseURL
	return state, nil
}

// Run performs the login steps on an existing page. It is exported for
// tests that drive their own browser.
func (f *Flow) Run(ctx context.Context, page playwright.Page, creds session.Credentials) error {
	return f.run(ctx, page, creds)
}

func (f *Flow) run(ctx context.Context, page playwright.Page, creds session.Credentials) error {
	base := pages.NewBase(page, pages.Options{BaseURL: f.opts.BaseURL, Timeout: f.opts.Timeout})
	loginPage := pages.NewLoginPage(base)
	log := f.log.WithField("email", creds.Email)

	log.Debug("Opening login page")
	if err := loginPage.Open(); err != nil {
		return err
	}

	log.Debug("Submitting e-mail")
	if err := loginPage.SubmitEmail(creds.Email); err != nil {
		if msg := loginPage.ErrorText(); msg != "" {
			return fmt.Errorf("%w (form says %q)", err, msg)
		}
		return err
	}

	code, err := f.code(ctx, creds)
	if err != nil {
		return err
	}

	log.Debug("Submitting one-time code")
	if err := loginPage.SubmitCode(code); err != nil {
		return err
	}

	dashboard := pages.NewDashboardPage(base)
	if !dashboard.IsLoggedIn(base.Timeout()) {
		if msg := loginPage.ErrorText(); msg != "" {
			return fmt.Errorf("dashboard did not load after login: %s", msg)
		}
		return errors.New("dashboard did not load after login")
	}

	log.Info("Login successful")
	return nil
}

func (f *Flow) code(ctx context.Context, creds session.Credentials) (string, error) {
	if code := creds.Extra["code"]; code != "" {
		return code, nil
	}
	if f.opts.Codes == nil {
		return "", ErrNoCode
	}
	code, err := f.opts.Codes.LatestCode(ctx, creds.Email)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoCode, err)
	}
	return code, nil
}

func (f *Flow) writeDebug(page playwright.Page) {
	if f.opts.DebugDir == "" {
		return
	}
	html, err := page.Content()
	if err != nil {
		return
	}
	path := filepath.Join(f.opts.DebugDir, "auth-debug.html")
	if err := os.MkdirAll(f.opts.DebugDir, 0o755); err != nil {
		return
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		f.log.WithError(err).Warn("Could not write login debug page")
		return
	}
	f.log.WithField("path", path).Error("Login failed, see debug page")
}
