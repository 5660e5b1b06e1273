//go:build acceptance
// +build acceptance

package acceptance

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/networkteam/e2ekit"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/dataset"
)

// standardUser names the test data record of the account used for login.
const standardUser = "standard_user"

var (
	// suite is shared by all tests of the process, so the login happens at
	// most once.
	suite *e2ekit.Suite
	// baseConfig is the configuration suite was built from.
	baseConfig config.Config
	// demo is the in-process application under test, nil when testing a
	// remote base URL.
	demo *TestApp
)

// TestMain installs the browser, starts the demo application if requested and
// creates the shared suite.
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	cfg = resolvePaths(cfg)

	if err := browser.Install(cfg.Browser); err != nil {
		log.Fatalf("could not install playwright: %v", err)
	}

	logger, err := e2ekit.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	opts := e2ekit.Options{Logger: logger}
	if cfg.Demo {
		users, email, err := demoUsers(cfg.DataFile)
		if err != nil {
			log.Fatalf("reading demo accounts: %v", err)
		}
		demo = StartTestApp(users, logger)
		defer demo.Close()

		cfg.BaseURL = demo.URL
		opts.Codes = demo.Codes()
		if cfg.LoginEmail == "" {
			cfg.LoginEmail = email
		}
	}

	suite, err = e2ekit.NewWithOptions(cfg, opts)
	if err != nil {
		log.Fatalf("creating suite: %v", err)
	}
	defer suite.Close()
	baseConfig = cfg

	return m.Run()
}

// resolvePaths makes relative locations relative to the module root, which is
// where "e2ekit run" resolves them as well.
func resolvePaths(cfg config.Config) config.Config {
	for _, p := range []*string{&cfg.ResultsDir, &cfg.AuthState, &cfg.DataFile} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join("..", *p)
		}
	}
	return cfg
}

// demoUsers reads the accounts of the demo application from the test data.
// Every record with an email and a name becomes an account. It also returns
// the e-mail of the standard user.
func demoUsers(path string) (map[string]string, string, error) {
	data, err := dataset.Load(afero.NewOsFs(), path)
	if err != nil {
		return nil, "", err
	}

	var loginEmail string
	users := make(map[string]string)
	for _, name := range data.Names() {
		rec, err := data.Record(name)
		if err != nil {
			continue
		}
		email := rec.StringOr("email", "")
		display := rec.StringOr("name", "")
		if email == "" || display == "" {
			continue
		}
		users[email] = display
		if name == standardUser {
			loginEmail = email
		}
	}
	return users, loginEmail, nil
}
