package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/networkteam/e2ekit/internal/demoapp"
)

func (c *cli) demoCmd() *cobra.Command {
	var (
		addr  string
		users map[string]string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve the demo dealer portal",
		Long: `Serve the demo dealer portal for manual exploration.

Login codes are not mailed anywhere; fetch them from /_mail/latest?to=<email>
or raise the log level to debug.`,
		Example: `  e2ekit demo --addr :8080 --user dealer@example.com="Quinn Dealer"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []demoapp.Option{demoapp.WithLogger(c.log)}
			for email, name := range users {
				opts = append(opts, demoapp.WithUser(email, name))
			}
			app := demoapp.New(opts...)
			defer app.Close()

			return c.serve(cmd.Context(), addr, app)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringToStringVar(&users, "user", map[string]string{"dealer@example.com": "Demo Dealer"}, "Accounts as email=name")

	return cmd
}

func (c *cli) serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.log.WithField("addr", addr).Info("Serving demo application")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
