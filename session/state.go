package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// SameSite is the SameSite attribute of a cookie as written by Playwright.
type SameSite string

const (
	SameSiteStrict SameSite = "Strict"
	SameSiteLax    SameSite = "Lax"
	SameSiteNone   SameSite = "None"
)

// Cookie is a browser cookie in Playwright storage state layout.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
	// Expires is a unix timestamp in seconds, -1 for session cookies.
	Expires  float64  `json:"expires"`
	HTTPOnly bool     `json:"httpOnly"`
	Secure   bool     `json:"secure"`
	SameSite SameSite `json:"sameSite,omitempty"`
}

// IsSession reports whether the cookie lives until the browser is closed.
func (c Cookie) IsSession() bool {
	return c.Expires <= 0
}

// ExpiredAt reports whether a persistent cookie has expired at the given time.
func (c Cookie) ExpiredAt(now time.Time) bool {
	return !c.IsSession() && c.Expires < float64(now.Unix())
}

// NameValue is a single local storage entry.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Origin holds the local storage entries of one origin.
type Origin struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage"`
}

// State is a snapshot of browser authentication state (the session artifact).
//
// The JSON layout is compatible with Playwright's storageState files, with
// two optional fields added for bookkeeping.
type State struct {
	Cookies []Cookie `json:"cookies"`
	Origins []Origin `json:"origins"`

	// BaseURL is the application the state was captured for.
	BaseURL string `json:"baseURL,omitempty"`
	// CreatedAt is the time of the login that produced the state.
	CreatedAt time.Time `json:"createdAt"`
}

// Cookie returns the first cookie with the given name.
func (s *State) Cookie(name string) (Cookie, bool) {
	return lo.Find(s.Cookies, func(c Cookie) bool {
		return c.Name == name
	})
}

// LocalStorage returns the local storage entries of an origin as a map.
func (s *State) LocalStorage(origin string) map[string]string {
	o, ok := lo.Find(s.Origins, func(o Origin) bool {
		return o.Origin == origin
	})
	if !ok {
		return nil
	}
	return lo.SliceToMap(o.LocalStorage, func(nv NameValue) (string, string) {
		return nv.Name, nv.Value
	})
}

// Expired reports whether the state holds cookies and every one of them is a
// persistent cookie that has expired.
func (s *State) Expired(now time.Time) bool {
	if len(s.Cookies) == 0 {
		return false
	}
	return lo.EveryBy(s.Cookies, func(c Cookie) bool {
		return c.ExpiredAt(now)
	})
}

// WithoutExpired returns a copy of the state without expired cookies.
func (s *State) WithoutExpired(now time.Time) *State {
	cp := *s
	cp.Cookies = lo.Reject(s.Cookies, func(c Cookie, _ int) bool {
		return c.ExpiredAt(now)
	})
	return &cp
}

// Age returns how long ago the state was created, or 0 if unknown.
func (s *State) Age(now time.Time) time.Duration {
	if s.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(s.CreatedAt)
}

// Encode serializes the state as indented JSON.
func Encode(s *State) ([]byte, error) {
	out := *s
	// Playwright rejects null arrays
	if out.Cookies == nil {
		out.Cookies = []Cookie{}
	}
	if out.Origins == nil {
		out.Origins = []Origin{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encoding session state: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a serialized state. Anything that is not a complete storage
// state document fails with ErrCorrupt.
func Decode(data []byte) (*State, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrCorrupt)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected object", ErrCorrupt)
	}
	if !doc.Get("cookies").IsArray() || !doc.Get("origins").IsArray() {
		return nil, fmt.Errorf("%w: missing cookies or origins", ErrCorrupt)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i, c := range s.Cookies {
		if c.Name == "" || c.Domain == "" {
			return nil, fmt.Errorf("%w: cookie %d has no name or domain", ErrCorrupt, i)
		}
	}
	for i, o := range s.Origins {
		if o.Origin == "" {
			return nil, fmt.Errorf("%w: origin %d is empty", ErrCorrupt, i)
		}
	}

	return &s, nil
}
