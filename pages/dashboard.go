package pages

import (
	"fmt"
	"strings"
)

// DashboardPath is the landing page of a logged in dealer.
const DashboardPath = "/pages/configurators"

// DashboardPage is the dealer landing page.
type DashboardPage struct {
	Navigator
	Finder
	Actor
	StorageInspector
	Recorder
}

// NewDashboardPage composes a dashboard page from base.
func NewDashboardPage(base *Base) *DashboardPage {
	return &DashboardPage{
		Navigator:        base,
		Finder:           base,
		Actor:            base,
		StorageInspector: base,
		Recorder:         base,
	}
}

// Open navigates to the dashboard.
func (p *DashboardPage) Open() error {
	return p.Goto(DashboardPath)
}

// IsLoggedIn reports whether the welcome header shows up within timeoutMs.
func (p *DashboardPage) IsLoggedIn(timeoutMs float64) bool {
	return p.IsVisible(DashboardHeaderSelector, timeoutMs)
}

// Greeting returns the welcome header text.
func (p *DashboardPage) Greeting() (string, error) {
	text, err := p.Text(DashboardHeaderSelector)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// AccountName opens the account menu and returns the displayed name.
func (p *DashboardPage) AccountName() (string, error) {
	if err := p.SafeClick(AccountMenuSelector); err != nil {
		return "", err
	}
	if err := p.SafeClick(ProfileMenuSelector); err != nil {
		return "", err
	}
	text, err := p.Text(AccountNameSelector)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// VisitNavLink clicks a main navigation link and goes back.
func (p *DashboardPage) VisitNavLink(label string) error {
	selector, ok := NavLinks[label]
	if !ok {
		return fmt.Errorf("unknown nav link %q", label)
	}
	if !p.IsVisible(selector, 0) {
		return fmt.Errorf("nav link %q not visible", label)
	}
	if err := p.Click(selector); err != nil {
		return err
	}
	return p.GoBack()
}
