package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/router"

	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), a, opts)
		}),
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default server.address:server.port)")

	return cmd
}

func runServer(parent context.Context, a *app, opts *ServeOptions) error {
	addr := opts.Addr
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", a.cfg.Server.Address, a.cfg.Server.Port)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRouter(a.cfg, a.service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s (multi_user=%t, mirror=%t)", addr, a.cfg.App.MultiUser, a.cfg.Mirror.Enabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "run server", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, "shutdown", err)
	}
	return nil
}
