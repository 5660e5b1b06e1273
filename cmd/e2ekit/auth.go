package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/networkteam/e2ekit"
	"github.com/networkteam/e2ekit/session"
)

func (c *cli) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the cached login session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether a valid session artifact exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.authStatus()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Log in and replace the session artifact",
		Long: `Log in interactively and replace the session artifact.

The previous artifact is removed first, so a failed login leaves no artifact
behind. Run this alone, not concurrently with a test run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.authCreate(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the session artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.authClear()
		},
	})
	return cmd
}

func (c *cli) cache() *session.Cache {
	return session.NewCache(session.Options{
		Fs:     afero.NewOsFs(),
		Path:   c.cfg.AuthState,
		MaxAge: c.cfg.SessionMaxAge,
		Logger: c.log,
	})
}

func (c *cli) authStatus() error {
	cache := c.cache()

	if cache.HasValidSession() {
		state, err := cache.Load()
		if err != nil {
			return err
		}
		c.printStatus("✓", fmt.Sprintf("Valid session at %s (%d cookies, created %s ago)",
			cache.Path(), len(state.Cookies), state.Age(time.Now()).Round(time.Second)), color.FgGreen)
		return nil
	}

	_, err := cache.Load()
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.printStatus("✗", fmt.Sprintf("No session at %s", cache.Path()), color.FgRed)
	case errors.Is(err, session.ErrCorrupt):
		c.printStatus("✗", fmt.Sprintf("Corrupt session at %s: %v", cache.Path(), err), color.FgRed)
	case err != nil:
		return err
	default:
		c.printStatus("⚠", fmt.Sprintf("Session at %s is stale or expired", cache.Path()), color.FgYellow)
	}
	return &exitError{code: 1}
}

func (c *cli) authCreate(cmd *cobra.Command) error {
	if c.cfg.Demo {
		return errors.New("auth create needs a running application, the demo application only lives during a test run")
	}

	cfg := c.cfg
	cfg.RecreateAuth = true

	suite, err := e2ekit.NewWithOptions(cfg, e2ekit.Options{Logger: c.log})
	if err != nil {
		return err
	}
	defer suite.Close()

	state, err := suite.AuthState(cmd.Context())
	if err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"path":    cfg.AuthState,
		"outcome": suite.AuthOutcome(),
	}).Debug("Session created")
	c.printStatus("✓", fmt.Sprintf("Created session at %s (%d cookies)", cfg.AuthState, len(state.Cookies)), color.FgGreen)
	return nil
}

func (c *cli) authClear() error {
	cache := c.cache()
	if err := cache.Invalidate(); err != nil {
		return err
	}
	c.printStatus("✓", fmt.Sprintf("Removed session at %s", cache.Path()), color.FgGreen)
	return nil
}
