package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// LoginPath is where the login form lives.
const LoginPath = "/account/login"

// LoginPage drives the e-mail plus one-time code login.
type LoginPage struct {
	Navigator
	Finder
	Actor
	Recorder

	timeout float64
}

// NewLoginPage composes a login page from base.
func NewLoginPage(base *Base) *LoginPage {
	return &LoginPage{
		Navigator: base,
		Finder:    base,
		Actor:     base,
		Recorder:  base,
		timeout:   base.Timeout(),
	}
}

// Open navigates to the login form and waits for the e-mail field.
func (p *LoginPage) Open() error {
	if err := p.Goto(LoginPath); err != nil {
		return err
	}
	return p.WaitFor(EmailInputSelector, nil)
}

// SubmitEmail enters the e-mail address and continues to the code step.
func (p *LoginPage) SubmitEmail(email string) error {
	if err := p.Fill(EmailInputSelector, email); err != nil {
		return err
	}
	if err := p.WaitFor(ContinueButtonSelector, playwright.WaitForSelectorStateAttached); err != nil {
		return err
	}
	if err := p.SafeClick(ContinueButtonSelector); err != nil {
		return err
	}
	if err := p.WaitFor(CodeInputSelector, nil); err != nil {
		return fmt.Errorf("code step did not appear: %w", err)
	}
	return nil
}

// SubmitCode enters the one-time code and submits the form.
func (p *LoginPage) SubmitCode(code string) error {
	if err := p.Fill(CodeInputSelector, code); err != nil {
		return err
	}
	return p.SafeClick(SubmitButtonSelector)
}

// ErrorText returns the validation message shown on the form, or "" if
// there is none.
func (p *LoginPage) ErrorText() string {
	if !p.IsVisible(LoginErrorSelector, 1_000) {
		return ""
	}
	text, err := p.Text(LoginErrorSelector)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
