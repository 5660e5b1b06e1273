package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/networkteam/e2ekit/config"
)

// DefaultPackages are tested when run gets no package arguments.
var DefaultPackages = []string{"./acceptance/..."}

// ReportFile is the name of the go test -json report in the results dir.
const ReportFile = "report.jsonl"

type runOptions struct {
	json   bool
	run    string
	goTool string
}

func (c *cli) runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [packages]",
		Short: "Run the acceptance suite",
		Long: `Run the acceptance suite with go test and the acceptance build tag.

Tests run in parallel with --workers browser contexts. The configuration is
passed to the test binaries as E2E_* environment variables. With --json the
go test event stream is stored in <results-dir>/report.jsonl and a summary is
printed.`,
		Example: `  e2ekit run --demo
  e2ekit run --base-url https://staging.example.com --workers 4 --markers smoke
  e2ekit run --recreate-auth --json ./acceptance/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTests(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Write a JSON report to <results-dir>/"+ReportFile)
	cmd.Flags().StringVar(&opts.run, "run", "", "Only run tests matching this regular expression")
	cmd.Flags().StringVar(&opts.goTool, "go", "go", "Go command used to run the tests")

	return cmd
}

// goTestArgs builds the go test command line.
func goTestArgs(cfg config.Config, opts runOptions, packages []string) []string {
	args := []string{
		"test",
		"-tags", "acceptance",
		"-count=1",
		"-parallel", strconv.Itoa(cfg.Workers),
	}
	if opts.json {
		args = append(args, "-json")
	} else {
		args = append(args, "-v")
	}
	if opts.run != "" {
		args = append(args, "-run", opts.run)
	}
	if len(packages) == 0 {
		packages = DefaultPackages
	}
	return append(args, packages...)
}

func (c *cli) runTests(cmd *cobra.Command, packages []string, opts runOptions) error {
	cfg, err := absPaths(c.cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	args := goTestArgs(cfg, opts, packages)
	c.log.WithFields(logrus.Fields{
		"workers": cfg.Workers,
		"browser": cfg.Browser,
		"baseURL": cfg.BaseURL,
		"demo":    cfg.Demo,
	}).Info("Running acceptance suite")
	c.log.WithField("args", args).Debug("Starting go test")

	goCmd := exec.CommandContext(cmd.Context(), opts.goTool, args...)
	goCmd.Env = append(os.Environ(), cfg.Environ()...)
	goCmd.Stderr = c.stderr

	var (
		report *os.File
		sum    *summary
	)
	if opts.json {
		path := filepath.Join(cfg.ResultsDir, ReportFile)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		report = f

		sum = newSummary(c.stdout)
		goCmd.Stdout = io.MultiWriter(report, sum)
	} else {
		goCmd.Stdout = c.stdout
	}

	runErr := goCmd.Run()

	if sum != nil {
		sum.Flush()
		sum.Print()
		c.log.WithField("path", report.Name()).Info("Wrote report")
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return &exitError{code: exitErr.ExitCode()}
		}
		return fmt.Errorf("running go test: %w", runErr)
	}
	return nil
}

// absPaths resolves file locations against the working directory, since go
// test runs each package in its own directory.
func absPaths(cfg config.Config) (config.Config, error) {
	for _, p := range []*string{&cfg.ResultsDir, &cfg.AuthState, &cfg.DataFile} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return cfg, fmt.Errorf("resolving %s: %w", *p, err)
		}
		*p = abs
	}
	return cfg, nil
}
