// Package config holds the immutable run configuration.
//
// Values are merged from (highest first) command line flags, E2E_*
// environment variables, an optional YAML config file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/networkteam/e2ekit/browser"
)

// EnvPrefix prefixes all environment variables.
const EnvPrefix = "E2E"

// Keys of the configuration values. Flags use the same names, environment
// variables the upper-cased form with dashes replaced, e.g. E2E_BASE_URL.
const (
	KeyBaseURL       = "base-url"
	KeyBrowser       = "browser"
	KeyChannel       = "browser-channel"
	KeyHeaded        = "headed"
	KeyWorkers       = "workers"
	KeyMarkers       = "markers"
	KeyRecreateAuth  = "recreate-auth"
	KeyRecordVideo   = "record-video"
	KeyTrace         = "trace"
	KeyResultsDir    = "results-dir"
	KeyAuthState     = "auth-state"
	KeyDataFile      = "data-file"
	KeyTimeout       = "timeout"
	KeySessionMaxAge = "session-max-age"
	KeyLoginEmail    = "login-email"
	KeyLoginCode     = "login-code"
	KeyMailboxURL    = "mailbox-url"
	KeyLogLevel      = "log-level"
	KeyDemo          = "demo"
)

// Config is passed by value; nothing reads configuration from globals.
type Config struct {
	BaseURL string
	// Browser is one of browser.Names.
	Browser string
	// Channel selects a branded chromium build.
	Channel string
	Headed  bool
	// Workers is the number of tests run in parallel.
	Workers int
	// Markers restricts the run to tests carrying one of them.
	Markers []string
	// RecreateAuth forces a new login even if a session artifact exists.
	RecreateAuth bool
	RecordVideo  bool
	Trace        bool
	ResultsDir   string
	// AuthState is the session artifact path.
	AuthState string
	DataFile  string
	// Timeout for browser waits and actions.
	Timeout time.Duration
	// SessionMaxAge expires artifacts by age, 0 keeps them until recreated.
	SessionMaxAge time.Duration
	LoginEmail    string
	// LoginCode is a fixed one-time code, used instead of the mailbox.
	LoginCode  string
	MailboxURL string
	LogLevel   string
	// Demo serves the built-in demo application and tests against it
	// instead of BaseURL.
	Demo bool
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		BaseURL:    "https://dmfluxury.com",
		Browser:    browser.Chromium,
		Workers:    1,
		ResultsDir: "results",
		AuthState:  filepath.Join("results", "auth.json"),
		DataFile:   filepath.Join("testdata", "users.json"),
		Timeout:    60 * time.Second,
		LogLevel:   "info",
	}
}

// TimeoutMillis returns Timeout in the unit Playwright expects.
func (c Config) TimeoutMillis() float64 {
	return float64(c.Timeout.Milliseconds())
}

// Validate checks the values for consistency.
func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base URL must not be empty"))
	}
	if !slices.Contains(browser.Names, c.Browser) {
		errs = append(errs, fmt.Errorf("browser must be one of %s, got %q", strings.Join(browser.Names, ", "), c.Browser))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.AuthState == "" {
		errs = append(errs, errors.New("auth state path must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.SessionMaxAge < 0 {
		errs = append(errs, errors.New("session max age must not be negative"))
	}
	return errors.Join(errs...)
}

// BindFlags registers all configuration flags on fs with the defaults as
// flag defaults.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(KeyBaseURL, d.BaseURL, "Base URL of the application under test")
	fs.String(KeyBrowser, d.Browser, "Browser engine: "+strings.Join(browser.Names, ", "))
	fs.String(KeyChannel, d.Channel, "Branded chromium channel, e.g. chrome or msedge")
	fs.Bool(KeyHeaded, d.Headed, "Run browsers with a visible window")
	fs.IntP(KeyWorkers, "n", d.Workers, "Number of tests run in parallel")
	fs.StringSliceP(KeyMarkers, "m", d.Markers, "Only run tests carrying one of these markers")
	fs.Bool(KeyRecreateAuth, d.RecreateAuth, "Force recreating the auth session artifact")
	fs.Bool(KeyRecordVideo, d.RecordVideo, "Record a video per test into <results-dir>/videos")
	fs.Bool(KeyTrace, d.Trace, "Record a Playwright trace per test into <results-dir>/traces")
	fs.String(KeyResultsDir, d.ResultsDir, "Directory for reports, screenshots, videos and traces")
	fs.String(KeyAuthState, d.AuthState, "Path of the auth session artifact")
	fs.String(KeyDataFile, d.DataFile, "Path of the JSON test data file")
	fs.Duration(KeyTimeout, d.Timeout, "Timeout for browser waits and actions")
	fs.Duration(KeySessionMaxAge, d.SessionMaxAge, "Recreate session artifacts older than this (0 disables)")
	fs.String(KeyLoginEmail, d.LoginEmail, "E-mail address used for the interactive login")
	fs.String(KeyLoginCode, d.LoginCode, "Fixed one-time login code (skips the mailbox)")
	fs.String(KeyMailboxURL, d.MailboxURL, "URL of the mailbox endpoint delivering login codes")
	fs.String(KeyLogLevel, d.LogLevel, "Log level: debug, info, warn, error")
	fs.Bool(KeyDemo, d.Demo, "Test against the built-in demo application")
}

// NewViper returns a viper instance with defaults and environment binding.
// Flags can be bound afterwards with BindPFlags.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeyBrowser, d.Browser)
	v.SetDefault(KeyChannel, d.Channel)
	v.SetDefault(KeyHeaded, d.Headed)
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyMarkers, d.Markers)
	v.SetDefault(KeyRecreateAuth, d.RecreateAuth)
	v.SetDefault(KeyRecordVideo, d.RecordVideo)
	v.SetDefault(KeyTrace, d.Trace)
	v.SetDefault(KeyResultsDir, d.ResultsDir)
	v.SetDefault(KeyAuthState, d.AuthState)
	v.SetDefault(KeyDataFile, d.DataFile)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeySessionMaxAge, d.SessionMaxAge)
	v.SetDefault(KeyLoginEmail, d.LoginEmail)
	v.SetDefault(KeyLoginCode, d.LoginCode)
	v.SetDefault(KeyMailboxURL, d.MailboxURL)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyDemo, d.Demo)
}

// ReadFile merges a YAML config file into v. A missing file named by the
// default search is not an error; an explicitly given path must exist.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("e2ekit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// FromViper builds and validates a Config.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		BaseURL:       strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		Browser:       strings.ToLower(v.GetString(KeyBrowser)),
		Channel:       v.GetString(KeyChannel),
		Headed:        v.GetBool(KeyHeaded),
		Workers:       v.GetInt(KeyWorkers),
		Markers:       splitList(v.GetStringSlice(KeyMarkers)),
		RecreateAuth:  v.GetBool(KeyRecreateAuth),
		RecordVideo:   v.GetBool(KeyRecordVideo),
		Trace:         v.GetBool(KeyTrace),
		ResultsDir:    v.GetString(KeyResultsDir),
		AuthState:     v.GetString(KeyAuthState),
		DataFile:      v.GetString(KeyDataFile),
		Timeout:       v.GetDuration(KeyTimeout),
		SessionMaxAge: v.GetDuration(KeySessionMaxAge),
		LoginEmail:    v.GetString(KeyLoginEmail),
		LoginCode:     v.GetString(KeyLoginCode),
		MailboxURL:    v.GetString(KeyMailboxURL),
		LogLevel:      v.GetString(KeyLogLevel),
		Demo:          v.GetBool(KeyDemo),
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// FromEnv builds a Config from defaults and E2E_* variables only. Test
// binaries started by "e2ekit run" use this.
func FromEnv() (Config, error) {
	return FromViper(NewViper())
}

// Environ renders the configuration as E2E_* variables for a child process.
func (c Config) Environ() []string {
	vars := map[string]string{
		KeyBaseURL:       c.BaseURL,
		KeyBrowser:       c.Browser,
		KeyChannel:       c.Channel,
		KeyHeaded:        strconv.FormatBool(c.Headed),
		KeyWorkers:       strconv.Itoa(c.Workers),
		KeyMarkers:       strings.Join(c.Markers, ","),
		KeyRecreateAuth:  strconv.FormatBool(c.RecreateAuth),
		KeyRecordVideo:   strconv.FormatBool(c.RecordVideo),
		KeyTrace:         strconv.FormatBool(c.Trace),
		KeyResultsDir:    c.ResultsDir,
		KeyAuthState:     c.AuthState,
		KeyDataFile:      c.DataFile,
		KeyTimeout:       c.Timeout.String(),
		KeySessionMaxAge: c.SessionMaxAge.String(),
		KeyLoginEmail:    c.LoginEmail,
		KeyLoginCode:     c.LoginCode,
		KeyMailboxURL:    c.MailboxURL,
		KeyLogLevel:      c.LogLevel,
		KeyDemo:          strconv.FormatBool(c.Demo),
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, EnvVar(k)+"="+vars[k])
	}
	return env
}

// EnvVar returns the environment variable name of a key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// splitList accepts both repeated values and comma separated lists, which
// is what an environment variable yields.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
