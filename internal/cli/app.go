package cli

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"finance-tracker/internal/config"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/mirror"
	"finance-tracker/internal/util"

	"github.com/spf13/cobra"
)

// app is everything a command needs, opened from one config.
type app struct {
	cfg     *config.Config
	store   *ledger.Store
	service *ledger.Service
	logFile *os.File
}

func openApp(opts *RootOptions) (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	a := &app{cfg: cfg}
	if err := a.setupLog(); err != nil {
		return nil, WrapExitError(ExitCommandError, "open log file", err)
	}

	store, err := ledger.Open(cfg.Database, storeOptions(cfg))
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	a.store = store

	m, err := mirror.New(cfg.Mirror, cfg.Security.EncryptionKey, store)
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "configure mirror", err)
	}
	a.service = ledger.NewService(store, m)
	return a, nil
}

func storeOptions(cfg *config.Config) ledger.Options {
	return ledger.Options{
		StrictCategories: cfg.App.StrictCategories,
		Hasher: util.PasswordHasher{
			Scheme:     cfg.Security.PasswordScheme,
			BcryptCost: cfg.Security.BcryptCost,
		},
		EncryptKey: cfg.Security.EncryptionKey,
	}
}

// setupLog tees the standard logger into log.file when configured.
func (a *app) setupLog() error {
	if a.cfg.Log.File == "" {
		return nil
	}
	if dir := filepath.Dir(a.cfg.Log.File); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(a.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	a.logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}
	if a.logFile != nil {
		log.SetOutput(os.Stderr)
		a.logFile.Close()
	}
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
}

func withApp(opts *RootOptions, fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a, cmd, args)
	}
}
