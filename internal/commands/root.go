package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Annarex/test-app-sub000/internal/buildinfo"
	"github.com/Annarex/test-app-sub000/internal/config"
	"github.com/Annarex/test-app-sub000/internal/logging"
	"github.com/Annarex/test-app-sub000/internal/revision"
	"github.com/Annarex/test-app-sub000/internal/runlog"
	"github.com/Annarex/test-app-sub000/internal/store"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	dir      string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:     "budgetcheck",
		Short:   "Budget execution report (form 0503317) recalculation and checks",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default $"+logging.EnvLevel+" or info)")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newProjectCommand(opts),
		newRefsCommand(opts),
		newImportCommand(opts),
		newCalcCommand(opts),
		newCheckCommand(opts),
		newTreeCommand(opts),
		newExportCommand(opts),
		newRevisionCommand(opts),
	)
	return rootCmd
}

// workspace is an opened project directory: its config, store and logger.
type workspace struct {
	root   string
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

func openWorkspace(ctx context.Context, cmd *cobra.Command, opts *options) (*workspace, error) {
	root, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	logger, err := logging.New(cmd.ErrOrStderr(), opts.logLevel)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s is not a budgetcheck workspace (run budgetcheck init): %w", root, err)
		}
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.DSN(root))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("workspace opened", "root", root, "driver", st.Driver())
	return &workspace{root: root, cfg: cfg, store: st, logger: logger}, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

func (w *workspace) service() (*revision.Service, error) {
	checker, err := w.cfg.Checker()
	if err != nil {
		return nil, err
	}
	return revision.NewService(w.store, w.cfg.FormColumns(), checker, w.logger), nil
}

// project returns the flag value, or the configured project.
func (w *workspace) project(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if w.cfg.Project != "" {
		return w.cfg.Project, nil
	}
	return "", errors.New("no project: pass --project or set project in " + config.FileName)
}

func (w *workspace) path(p string) string {
	return config.Resolve(w.root, p)
}

// record appends a run to the audit log. Failures are logged, not returned.
func (w *workspace) record(command, project, label string, res *revision.Result, runErr error, details string) {
	e := runlog.Entry{
		Timestamp: time.Now(),
		Command:   command,
		Project:   project,
		Revision:  label,
		Outcome:   runlog.OutcomeOK,
		Details:   details,
	}
	if res != nil {
		e.Discrepancies = len(res.Discrepancies)
		e.Warnings = len(res.Warnings)
	}
	if runErr != nil {
		e.Outcome = runlog.OutcomeFailed
		e.Details = runErr.Error()
	}
	if err := runlog.Append(w.path(w.cfg.Paths.Logs), e); err != nil {
		w.logger.Warn("failed to write run log", "err", err)
	}
}

// withWorkspace opens the workspace for the duration of fn.
func withWorkspace(cmd *cobra.Command, opts *options, fn func(ctx context.Context, w *workspace) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := openWorkspace(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(ctx, w)
}
