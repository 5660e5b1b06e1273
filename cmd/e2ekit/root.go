package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/networkteam/e2ekit"
	"github.com/networkteam/e2ekit/config"
)

// exitError carries the exit code of a failed child process.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// cli holds state shared by all commands of one invocation.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	cfg        config.Config
	log        *logrus.Logger
}

func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{stdout: os.Stdout, stderr: os.Stderr}
	cmd := c.rootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(c.stderr, "%s %v\n", color.RedString("Error:"), err)
	return 1
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "e2ekit",
		Short: "Browser acceptance tests with a cached login session",
		Long: `e2ekit runs the browser acceptance suite against the dealer portal.

The interactive login (e-mail plus one-time code) is performed once and the
resulting session is stored as an artifact file. Later runs reuse it until it
is missing, corrupt, expired or explicitly recreated with --recreate-auth.

Configuration is read from flags, E2E_* environment variables and an optional
e2ekit.yaml in the working directory, in that order of precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)

	cmd.PersistentFlags().StringVar(&c.configFile, "config", "", "Config file (default: ./e2ekit.yaml if present)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(c.runCmd())
	cmd.AddCommand(c.authCmd())
	cmd.AddCommand(c.demoCmd())

	return cmd
}

func (c *cli) loadConfig(cmd *cobra.Command, _ []string) error {
	v := config.NewViper()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	if err := config.ReadFile(v, c.configFile); err != nil {
		return err
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	log, err := e2ekit.NewLogger(cfg.LogLevel, c.stderr)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.log = log
	if used := v.ConfigFileUsed(); used != "" {
		log.WithField("path", used).Debug("Loaded config file")
	}
	return nil
}

func (c *cli) printStatus(symbol, message string, attr color.Attribute) {
	fmt.Fprintf(c.stdout, "%s %s\n", color.New(attr).Sprint(symbol), message)
}
