package cli

import (
	"fmt"
	"io"
	"os"

	"finance-tracker/internal/mirror"

	"github.com/spf13/cobra"
)

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the database file to the mirror now",
		Args:  cobra.NoArgs,
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, _ []string) error {
			report := a.service.Sync(cmd.Context())
			if report.Skipped() {
				return WrapExitError(ExitFailure, "sync", mirror.ErrDisabled)
			}
			// nothing was written locally, so a failed upload fails the command
			if report.Err != nil {
				return WrapExitError(ExitCommandError, "sync", report.Err)
			}
			return formatter(rootOpts, cmd).Success(report.Result, report, nil)
		}),
	}
}

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Force bool
}

// NewRestoreCommand downloads the mirrored copy over the local database.
// The database is not opened, so nothing else may be using it.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the local database with the mirrored copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}

			dest := cfg.Database.Path
			if _, err := os.Stat(dest); err == nil && !opts.Force {
				return WrapExitError(ExitFailure, "restore",
					fmt.Errorf("%s exists, pass --force to overwrite it", dest))
			}

			remote, err := mirror.NewRemote(cfg.Mirror, cfg.Security.EncryptionKey)
			if err != nil {
				return WrapExitError(ExitCommandError, "configure mirror", err)
			}
			obj, err := mirror.Restore(cmd.Context(), remote, cfg.Mirror.Path, dest)
			if err != nil {
				return WrapExitError(ExitCommandError, "restore", err)
			}

			result := map[string]interface{}{"file": dest, "revision": obj.Revision, "bytes": len(obj.Content)}
			return formatter(rootOpts, cmd).Success(result, nil, func(w io.Writer) {
				fmt.Fprintf(w, "restored %s from revision %s (%d bytes)\n", dest, obj.Revision, len(obj.Content))
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing database")

	return cmd
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		password string
		admin    bool
	)

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account for multi-user mode",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(rootOpts, func(a *app, cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("PFT_PASSWORD")
			}
			acc, report, err := a.service.RegisterAccount(cmd.Context(), args[0], password, admin)
			if err != nil {
				return ledgerError("register", err)
			}
			return formatter(rootOpts, cmd).Success(acc, report, func(w io.Writer) {
				fmt.Fprintf(w, "registered %s (id %d, admin %t)\n", acc.Username, acc.ID, acc.IsAdmin)
			})
		}),
	}

	cmd.Flags().StringVar(&password, "password", "", "password (or PFT_PASSWORD)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant access to every account's rows")

	return cmd
}
