package pages

// Login screen.
const (
	LoginLinkSelector      = "text=Dealer Login"
	EmailInputSelector     = "input[name='email']"
	ContinueButtonSelector = "button[name='commit']"
	CodeHeadingSelector    = "//h2[contains(text(),\"Enter code\")]"
	CodeInputSelector      = "input[placeholder='6-digit code']"
	SubmitButtonSelector   = "//span[contains(text(),\"Submit\")]/parent::button"
	LoginErrorSelector     = "p.textfield-error"
)

// Dashboard and navigation.
const (
	DashboardHeaderSelector = "h2.welcome"
	AccountMenuSelector     = "div.login-area"
	ProfileMenuSelector     = "a[title='Profile']"
	AccountNameSelector     = "//div[text()=\"Name\"]/span"
)

// NavLinks maps the labels of the main navigation to their selectors.
var NavLinks = map[string]string{
	"Products":     "xpath=(//a[text()='Products'])[2]",
	"Shop":         "xpath=(//a[text()='Shop'])[2]",
	"Solutions":    "xpath=(//a[text()='Solutions'])[2]",
	"Sales Tools":  "//a/span[text()='Sales Tools']",
	"Why DMF":      "xpath=(//a[text()='Why DMF'])[2]",
	"Inspirations": "//a/span[text()='Inspirations']",
	"Rep Maps":     "//a/span[text()='Rep Maps']",
	"Resources":    "//a/span[text()='Resources']",
}
