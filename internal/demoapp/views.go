package demoapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

type navLink struct {
	Label string
	Path  string
	// Wrapped links render their label in a span and appear in the header
	// only; plain links appear in header and footer.
	Wrapped bool
}

var navLinks = []navLink{
	{Label: "Products", Path: "/pages/products"},
	{Label: "Shop", Path: "/pages/shop"},
	{Label: "Solutions", Path: "/pages/solutions"},
	{Label: "Sales Tools", Path: "/pages/sales-tools", Wrapped: true},
	{Label: "Why DMF", Path: "/pages/why-dmf"},
	{Label: "Inspirations", Path: "/pages/inspirations", Wrapped: true},
	{Label: "Rep Maps", Path: "/pages/rep-maps", Wrapped: true},
	{Label: "Resources", Path: "/pages/resources", Wrapped: true},
}

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *writer) render(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

var esc = templ.EscapeString

func layout(title string, header, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title></head><body>`, esc(title))
		w.render(ctx, header)
		w.printf(`<main>`)
		w.render(ctx, body)
		w.printf(`</main></body></html>`)
		return w.err
	})
}

func homeView() templ.Component {
	return layout("DMF", nil, templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h1>DMF Lighting</h1><a href="/account/login">Dealer Login</a>`)
		return w.err
	}))
}

func errorText(msg string) string {
	if msg == "" {
		return ""
	}
	return `<p class="textfield-error">` + esc(msg) + `</p>`
}

func loginView(email, errMsg string) templ.Component {
	return layout("Dealer Login", nil, templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h2>Dealer Login</h2><form method="post" action="/account/login">`)
		w.printf(`<label>E-mail <input type="email" name="email" value="%s" autocomplete="email"></label>`, esc(email))
		w.printf(`%s<button type="submit" name="commit">Continue</button></form>`, errorText(errMsg))
		return w.err
	}))
}

func codeView(email, errMsg string) templ.Component {
	return layout("Enter code", nil, templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h2>Enter code</h2><p>We sent a code to %s.</p>`, esc(email))
		w.printf(`<form method="post" action="/account/verify"><input type="hidden" name="email" value="%s">`, esc(email))
		w.printf(`<input type="text" name="code" inputmode="numeric" placeholder="6-digit code" autocomplete="one-time-code">`)
		w.printf(`%s<button type="submit"><span>Submit</span></button></form>`, errorText(errMsg))
		return w.err
	}))
}

func accountHeader(email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<header><div class="login-area"><span>Account</span> <a title="Profile" href="/account/profile">Profile</a> <a href="/account/logout">Log out</a></div>`)
		w.printf(`<nav class="main">`)
		for _, l := range navLinks {
			if l.Wrapped {
				w.printf(`<a href="%s"><span>%s</span></a> `, esc(l.Path), esc(l.Label))
			} else {
				w.printf(`<a href="%s">%s</a> `, esc(l.Path), esc(l.Label))
			}
		}
		w.printf(`</nav></header>`)

		// The footer repeats the plain links, so these exist twice per page.
		w.printf(`<footer><nav class="footer">`)
		for _, l := range navLinks {
			if !l.Wrapped {
				w.printf(`<a href="%s">%s</a> `, esc(l.Path), esc(l.Label))
			}
		}
		w.printf(`</nav></footer>`)

		account, err := json.Marshal(map[string]string{"email": email})
		if err != nil {
			return err
		}
		w.printf(`<script>localStorage.setItem(%q, %s);</script>`, localStorageKey, mustJSONString(string(account)))
		return w.err
	})
}

func mustJSONString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func dashboardView(email, name string) templ.Component {
	return layout("Configurators", accountHeader(email), templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h2 class="welcome">Welcome back %s!</h2><p>Your configurators.</p>`, esc(name))
		return w.err
	}))
}

func profileView(email, name string) templ.Component {
	return layout("Profile", accountHeader(email), templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h2>Profile</h2><div>Name<span>%s</span></div><div>E-mail<span>%s</span></div>`, esc(name), esc(email))
		return w.err
	}))
}

func contentView(email, title string) templ.Component {
	return layout(title, accountHeader(email), templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h1>%s</h1>`, esc(title))
		return w.err
	}))
}
