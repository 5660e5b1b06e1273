// Package demoapp is a small dealer portal with an e-mail plus one-time code
// login. It serves as the application under test for the acceptance suite.
package demoapp

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/gofrs/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	// SessionCookie carries the server side session ID.
	SessionCookie = "_dealer_session"

	localStorageKey = "dealer"

	DefaultRequestCapacity = 1000

	mailFrom    = "noreply@dmfluxury.com"
	mailSubject = "Your login code"
)

// Paths served by the App.
const (
	LoginPath     = "/account/login"
	VerifyPath    = "/account/verify"
	LogoutPath    = "/account/logout"
	ProfilePath   = "/account/profile"
	DashboardPath = "/pages/configurators"
	MailPath      = "/_mail/latest"
)

type App struct {
	users    map[string]string
	codes    func() string
	sessions *SessionManager
	requests *RequestRecorder
	mailbox  *Mailbox
	log      logrus.FieldLogger

	pendingMu sync.Mutex
	pending   map[string]string

	mux http.Handler
}

// New creates the app. Without WithUser options nobody can log in.
func New(options ...Option) *App {
	opts := appOptions{Users: make(map[string]string)}
	for _, o := range options {
		o(&opts)
	}
	if opts.RequestCapacity == 0 {
		opts.RequestCapacity = DefaultRequestCapacity
	}
	if opts.Codes == nil {
		opts.Codes = randomCode
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	app := &App{
		users: lo.MapKeys(opts.Users, func(_ string, email string) string {
			return strings.ToLower(email)
		}),
		codes: opts.Codes,
		sessions: NewSessionManager(SessionManagerOptions{
			IdleTimeout: opts.SessionIdleTimeout,
			Logger:      log,
		}),
		requests: NewRequestRecorder(opts.RequestCapacity),
		mailbox:  &Mailbox{},
		log:      log,
		pending:  make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", app.home)
	mux.HandleFunc("GET "+LoginPath, app.loginForm)
	mux.HandleFunc("POST "+LoginPath, app.requestCode)
	mux.HandleFunc("POST "+VerifyPath, app.verifyCode)
	mux.HandleFunc("GET "+LogoutPath, app.logout)
	mux.HandleFunc("GET "+ProfilePath, app.requireLogin(app.profile))
	mux.HandleFunc("GET "+DashboardPath, app.requireLogin(app.dashboard))
	for _, l := range navLinks {
		mux.HandleFunc("GET "+l.Path, app.requireLogin(app.content(l.Label)))
	}
	mux.HandleFunc("GET "+MailPath, app.latestMail)

	app.mux = app.requests.Middleware(mux)
	return app
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Close stops background work.
func (a *App) Close() {
	a.sessions.Close()
}

func (a *App) Sessions() *SessionManager {
	return a.sessions
}

func (a *App) Requests() *RequestRecorder {
	return a.requests
}

func (a *App) Mailbox() *Mailbox {
	return a.mailbox
}

// LoginCount returns how many one-time codes were submitted, which is the
// number of interactive logins attempted.
func (a *App) LoginCount() int {
	return a.requests.Count(http.MethodPost, VerifyPath)
}

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	templ.Handler(homeView()).ServeHTTP(w, r)
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	templ.Handler(loginView("", "")).ServeHTTP(w, r)
}

func (a *App) requestCode(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if _, ok := a.users[email]; !ok {
		templ.Handler(loginView(email, "No dealer account exists for this e-mail address."),
			templ.WithStatus(http.StatusUnprocessableEntity)).ServeHTTP(w, r)
		return
	}

	code := a.codes()
	a.pendingMu.Lock()
	a.pending[email] = code
	a.pendingMu.Unlock()

	a.mailbox.Send(Mail{
		From:    mailFrom,
		To:      email,
		Subject: mailSubject,
		Body:    fmt.Sprintf("Your one-time login code is %s. It can be used once.", code),
		SentAt:  time.Now(),
	})
	a.log.WithField("email", email).Debug("Sent login code")

	templ.Handler(codeView(email, "")).ServeHTTP(w, r)
}

func (a *App) verifyCode(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	code := strings.TrimSpace(r.FormValue("code"))

	a.pendingMu.Lock()
	want, ok := a.pending[email]
	if ok && want == code {
		delete(a.pending, email)
	}
	a.pendingMu.Unlock()

	if !ok || want != code {
		templ.Handler(codeView(email, "The code is invalid or has expired."),
			templ.WithStatus(http.StatusUnprocessableEntity)).ServeHTTP(w, r)
		return
	}

	id := a.sessions.Create(email)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	a.log.WithField("email", email).Info("Dealer logged in")

	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := sessionID(r); ok {
		a.sessions.Delete(id)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, email string)

func (a *App) requireLogin(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r)
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		email, ok := a.sessions.Touch(id)
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next(w, r, email)
	}
}

func (a *App) dashboard(w http.ResponseWriter, r *http.Request, email string) {
	templ.Handler(dashboardView(email, a.users[email])).ServeHTTP(w, r)
}

func (a *App) profile(w http.ResponseWriter, r *http.Request, email string) {
	templ.Handler(profileView(email, a.users[email])).ServeHTTP(w, r)
}

func (a *App) content(title string) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, email string) {
		templ.Handler(contentView(email, title)).ServeHTTP(w, r)
	}
}

func (a *App) latestMail(w http.ResponseWriter, r *http.Request) {
	mail, ok := a.mailbox.Latest(r.URL.Query().Get("to"), r.URL.Query().Get("q"))
	if !ok {
		http.Error(w, "no mail", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mail); err != nil {
		a.log.WithError(err).Warn("Encoding mail failed")
	}
}

func sessionID(r *http.Request) (uuid.UUID, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.FromString(c.Value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
