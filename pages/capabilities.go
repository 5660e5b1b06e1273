// Package pages provides Page Objects for browser tests.
//
// Instead of a base class with every helper, pages are composed from small
// capability interfaces. Base implements all of them over a playwright.Page
// and concrete pages embed only what they expose.
package pages

import (
	"github.com/playwright-community/playwright-go"
)

// Navigator moves the page between URLs.
type Navigator interface {
	// Goto opens an absolute URL or a path relative to the base URL.
	Goto(path string) error
	URL() string
	Reload() error
	GoBack() error
	// WaitForURL waits until the URL matches a glob pattern such as "**/dashboard".
	WaitForURL(pattern string) error
}

// Finder looks up elements and reads their state.
type Finder interface {
	Locator(selector string) playwright.Locator
	ByText(text string, exact bool) playwright.Locator
	WaitFor(selector string, state *playwright.WaitForSelectorState) error
	// IsVisible waits up to timeoutMs for the element and never fails.
	IsVisible(selector string, timeoutMs float64) bool
	Text(selector string) (string, error)
	Texts(selector string) ([]string, error)
	Count(selector string) (int, error)
	Attribute(selector, name string) (string, error)
}

// Actor performs user input.
type Actor interface {
	Click(selector string) error
	// SafeClick retries the click to ride out detached or covered elements.
	SafeClick(selector string) error
	Fill(selector, value string) error
	Press(key string) error
	Hover(selector string) error
	SetChecked(selector string, checked bool) error
	SelectOption(selector string, values ...string) error
}

// StorageInspector reads and changes the browser storage of the page.
type StorageInspector interface {
	Cookies() ([]playwright.Cookie, error)
	ClearCookies() error
	LocalStorage() (map[string]string, error)
	SetLocalStorage(entries map[string]string) error
}

// Recorder stores screenshots of the page.
type Recorder interface {
	// Screenshot writes a full page PNG and returns its path.
	Screenshot(name string) (string, error)
}
