package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/session"
)

// Default viewport of new contexts.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// ContextOptions configures a new browser context.
type ContextOptions struct {
	// State is loaded into the context when set.
	State *session.State
	// BaseURL resolves relative navigations.
	BaseURL string
	// VideoDir enables video recording into the directory.
	VideoDir string
	// NoViewport lets the page follow the window size (headed logins).
	NoViewport bool
	// UserAgent overrides the browser user agent.
	UserAgent string
}

// NewContext creates an isolated browser context.
func (l *Launcher) NewContext(opts ContextOptions) (playwright.BrowserContext, error) {
	ctxOpts := playwright.BrowserNewContextOptions{}

	if opts.NoViewport {
		ctxOpts.NoViewport = playwright.Bool(true)
	} else {
		ctxOpts.Viewport = &playwright.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(opts.BaseURL)
	}
	if opts.VideoDir != "" {
		ctxOpts.RecordVideo = &playwright.RecordVideo{Dir: opts.VideoDir}
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.State != nil {
		ctxOpts.StorageState = ToPlaywright(opts.State.WithoutExpired(time.Now()))
	}

	ctx, err := l.Browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	return ctx, nil
}

// CaptureState snapshots the cookies and local storage of a context.
func CaptureState(ctx playwright.BrowserContext) (*session.State, error) {
	st, err := ctx.StorageState()
	if err != nil {
		return nil, fmt.Errorf("capturing storage state: %w", err)
	}
	return FromPlaywright(st), nil
}

// ToPlaywright converts a session state to context creation input.
func ToPlaywright(s *session.State) *playwright.OptionalStorageState {
	out := &playwright.OptionalStorageState{
		Cookies: make([]playwright.OptionalCookie, 0, len(s.Cookies)),
		Origins: make([]playwright.Origin, 0, len(s.Origins)),
	}
	for _, c := range s.Cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			Expires:  playwright.Float(c.Expires),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.SameSite != "" {
			oc.SameSite = sameSiteToPlaywright(c.SameSite)
		}
		out.Cookies = append(out.Cookies, oc)
	}
	for _, o := range s.Origins {
		entries := make([]playwright.NameValue, 0, len(o.LocalStorage))
		for _, nv := range o.LocalStorage {
			entries = append(entries, playwright.NameValue{Name: nv.Name, Value: nv.Value})
		}
		out.Origins = append(out.Origins, playwright.Origin{Origin: o.Origin, LocalStorage: entries})
	}
	return out
}

// FromPlaywright converts a captured storage state.
func FromPlaywright(st *playwright.StorageState) *session.State {
	s := &session.State{
		Cookies: make([]session.Cookie, 0, len(st.Cookies)),
		Origins: make([]session.Origin, 0, len(st.Origins)),
	}
	for _, c := range st.Cookies {
		cookie := session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = session.SameSite(*c.SameSite)
		}
		s.Cookies = append(s.Cookies, cookie)
	}
	for _, o := range st.Origins {
		entries := make([]session.NameValue, 0, len(o.LocalStorage))
		for _, nv := range o.LocalStorage {
			entries = append(entries, session.NameValue{Name: nv.Name, Value: nv.Value})
		}
		s.Origins = append(s.Origins, session.Origin{Origin: o.Origin, LocalStorage: entries})
	}
	return s
}

func sameSiteToPlaywright(s session.SameSite) *playwright.SameSiteAttribute {
	switch s {
	case session.SameSiteStrict:
		return playwright.SameSiteAttributeStrict
	case session.SameSiteNone:
		return playwright.SameSiteAttributeNone
	default:
		return playwright.SameSiteAttributeLax
	}
}
