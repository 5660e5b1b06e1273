package browser

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// Names of the supported browser engines.
const (
	Chromium = "chromium"
	Firefox  = "firefox"
	WebKit   = "webkit"
)

// Names lists the supported browser engines.
var Names = []string{Chromium, Firefox, WebKit}

// ErrUnknownBrowser is returned for browser names outside Names.
var ErrUnknownBrowser = errors.New("unknown browser")

// Install downloads the driver and the given browsers.
func Install(browsers ...string) error {
	err := playwright.Install(&playwright.RunOptions{
		Browsers: browsers,
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	if err != nil {
		return fmt.Errorf("installing playwright: %w", err)
	}
	return nil
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	// Browser is one of Names.
	// Default: chromium
	Browser  string
	Headless bool
	// Args are passed to the browser process.
	Args []string
	// Channel selects a branded chromium build, e.g. "chrome".
	Channel string
}

// Launcher owns a Playwright driver and one launched browser.
type Launcher struct {
	PW      *playwright.Playwright
	Browser playwright.Browser

	name string
	log  logrus.FieldLogger
}

// Launch starts the Playwright driver and launches a browser.
func Launch(opts LaunchOptions, log logrus.FieldLogger) (*Launcher, error) {
	name := opts.Browser
	if name == "" {
		name = Chromium
	}
	if !slices.Contains(Names, name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBrowser, name)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.Channel != "" {
		launchOpts.Channel = playwright.String(opts.Channel)
	}

	browser, err := browserType(pw, name).Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launching %s: %w", name, err)
	}

	log.WithFields(logrus.Fields{
		"browser":  name,
		"headless": opts.Headless,
		"version":  browser.Version(),
	}).Debug("Launched browser")

	return &Launcher{PW: pw, Browser: browser, name: name, log: log}, nil
}

func browserType(pw *playwright.Playwright, name string) playwright.BrowserType {
	switch name {
	case Firefox:
		return pw.Firefox
	case WebKit:
		return pw.WebKit
	default:
		return pw.Chromium
	}
}

// Name returns the launched browser engine.
func (l *Launcher) Name() string {
	return l.name
}

// Close releases the browser and the driver.
func (l *Launcher) Close() error {
	var errs []error
	if err := l.Browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := l.PW.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
