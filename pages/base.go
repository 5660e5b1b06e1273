package pages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
)

// DefaultTimeout for waits and actions in milliseconds.
const DefaultTimeout = 60_000

// ErrNoBaseURL is returned when a relative path is opened without base URL.
var ErrNoBaseURL = errors.New("base URL not set; use an absolute URL")

// Options configures a Base.
type Options struct {
	// BaseURL resolves relative paths.
	BaseURL string
	// Timeout in milliseconds for waits and actions.
	// Default: DefaultTimeout
	Timeout float64
	// ScreenshotDir receives screenshots.
	// Default: results/screenshots
	ScreenshotDir string
	// ClickRetries is the number of SafeClick attempts.
	// Default: 3
	ClickRetries int
	// ClickRetryDelay is the pause between SafeClick attempts.
	// Default: 250ms
	ClickRetryDelay time.Duration
}

// Base implements every capability over a playwright.Page.
type Base struct {
	Page playwright.Page

	baseURL       string
	timeout       float64
	screenshotDir string
	retries       int
	retryDelay    time.Duration
}

var (
	_ Navigator        = (*Base)(nil)
	_ Finder           = (*Base)(nil)
	_ Actor            = (*Base)(nil)
	_ StorageInspector = (*Base)(nil)
	_ Recorder         = (*Base)(nil)
)

// NewBase wraps page.
func NewBase(page playwright.Page, opts Options) *Base {
	b := &Base{
		Page:          page,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		timeout:       opts.Timeout,
		screenshotDir: opts.ScreenshotDir,
		retries:       opts.ClickRetries,
		retryDelay:    opts.ClickRetryDelay,
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.screenshotDir == "" {
		b.screenshotDir = filepath.Join("results", "screenshots")
	}
	if b.retries <= 0 {
		b.retries = 3
	}
	if b.retryDelay <= 0 {
		b.retryDelay = 250 * time.Millisecond
	}
	return b
}

// BaseURL returns the base URL without trailing slash.
func (b *Base) BaseURL() string {
	return b.baseURL
}

// Timeout returns the default timeout in milliseconds.
func (b *Base) Timeout() float64 {
	return b.timeout
}

// ResolveURL joins a relative path to the base URL. Absolute URLs are
// returned as is.
func ResolveURL(baseURL, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if baseURL == "" {
		return "", fmt.Errorf("%w: %q", ErrNoBaseURL, path)
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

// --- Navigator

func (b *Base) Goto(path string) error {
	url, err := ResolveURL(b.baseURL, path)
	if err != nil {
		return err
	}
	_, err = b.Page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(b.timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (b *Base) URL() string {
	return b.Page.URL()
}

func (b *Base) Reload() error {
	_, err := b.Page.Reload(playwright.PageReloadOptions{
		Timeout:   playwright.Float(b.timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (b *Base) GoBack() error {
	_, err := b.Page.GoBack(playwright.PageGoBackOptions{
		Timeout:   playwright.Float(b.timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (b *Base) WaitForURL(pattern string) error {
	return b.Page.WaitForURL(pattern, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(b.timeout),
	})
}

// --- Finder

func (b *Base) Locator(selector string) playwright.Locator {
	return b.Page.Locator(selector)
}

func (b *Base) ByText(text string, exact bool) playwright.Locator {
	return b.Page.GetByText(text, playwright.PageGetByTextOptions{Exact: playwright.Bool(exact)})
}

func (b *Base) WaitFor(selector string, state *playwright.WaitForSelectorState) error {
	if state == nil {
		state = playwright.WaitForSelectorStateVisible
	}
	err := b.Page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(b.timeout),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

func (b *Base) IsVisible(selector string, timeoutMs float64) bool {
	if timeoutMs <= 0 {
		timeoutMs = b.timeout
	}
	err := b.Page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeoutMs),
	})
	return err == nil
}

func (b *Base) Text(selector string) (string, error) {
	return b.Page.Locator(selector).InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(b.timeout),
	})
}

func (b *Base) Texts(selector string) ([]string, error) {
	return b.Page.Locator(selector).AllInnerTexts()
}

func (b *Base) Count(selector string) (int, error) {
	return b.Page.Locator(selector).Count()
}

func (b *Base) Attribute(selector, name string) (string, error) {
	return b.Page.Locator(selector).GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(b.timeout),
	})
}

// --- Actor

func (b *Base) Click(selector string) error {
	loc := b.Page.Locator(selector)
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(b.timeout),
	}); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	if err := loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(b.timeout)}); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

func (b *Base) SafeClick(selector string) error {
	_, _, err := lo.AttemptWithDelay(b.retries, b.retryDelay, func(_ int, _ time.Duration) error {
		return b.Click(selector)
	})
	return err
}

func (b *Base) Fill(selector, value string) error {
	loc := b.Page.Locator(selector)
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(b.timeout),
	}); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	if err := loc.Fill(value, playwright.LocatorFillOptions{Timeout: playwright.Float(b.timeout)}); err != nil {
		return fmt.Errorf("filling %s: %w", selector, err)
	}
	return nil
}

func (b *Base) Press(key string) error {
	return b.Page.Keyboard().Press(key)
}

func (b *Base) Hover(selector string) error {
	return b.Page.Locator(selector).Hover(playwright.LocatorHoverOptions{Timeout: playwright.Float(b.timeout)})
}

func (b *Base) SetChecked(selector string, checked bool) error {
	return b.Page.Locator(selector).SetChecked(checked)
}

func (b *Base) SelectOption(selector string, values ...string) error {
	_, err := b.Page.Locator(selector).SelectOption(playwright.SelectOptionValues{Values: &values})
	return err
}

// --- StorageInspector

func (b *Base) Cookies() ([]playwright.Cookie, error) {
	return b.Page.Context().Cookies()
}

func (b *Base) ClearCookies() error {
	return b.Page.Context().ClearCookies()
}

func (b *Base) LocalStorage() (map[string]string, error) {
	res, err := b.Page.Evaluate(`() => Object.assign({}, window.localStorage)`)
	if err != nil {
		return nil, fmt.Errorf("reading local storage: %w", err)
	}
	raw, ok := res.(map[string]interface{})
	if !ok {
		return map[string]string{}, nil
	}
	return lo.MapValues(raw, func(v interface{}, _ string) string {
		return fmt.Sprint(v)
	}), nil
}

func (b *Base) SetLocalStorage(entries map[string]string) error {
	_, err := b.Page.Evaluate(`(entries) => {
		for (const [k, v] of Object.entries(entries)) localStorage.setItem(k, v);
	}`, entries)
	if err != nil {
		return fmt.Errorf("writing local storage: %w", err)
	}
	return nil
}

// --- Recorder

func (b *Base) Screenshot(name string) (string, error) {
	if name == "" {
		name = fmt.Sprintf("page-%d.png", time.Now().UnixMilli())
	}
	if err := os.MkdirAll(b.screenshotDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(b.screenshotDir, name)
	_, err := b.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("taking screenshot: %w", err)
	}
	return path, nil
}
