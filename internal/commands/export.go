package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Annarex/test-app-sub000/internal/rowio"
	"github.com/Annarex/test-app-sub000/internal/store"
)

func newExportCommand(opts *options) *cobra.Command {
	var rf revisionFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored revision, with computed values, as a rows CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				project, err := w.project(rf.project)
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = fmt.Sprintf("%s-%s.csv", project, rf.revision)
				}
				if !filepath.IsAbs(path) {
					path = filepath.Join(w.path(w.cfg.Paths.Exports), path)
				}
				err = runExport(ctx, w, project, rf.revision, path)
				w.record("export", project, rf.revision, nil, err, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s/%s to %s\n", project, rf.revision, path)
				return nil
			})
		},
	}
	rf.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <project>-<revision>.csv in the exports dir)")
	return cmd
}

func runExport(ctx context.Context, w *workspace, project, label, path string) error {
	form, _, err := w.store.Load(ctx, project, label)
	if err != nil {
		return fmt.Errorf("loading revision %s/%s: %w", project, label, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating exports dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := rowio.WriteForm(f, form, w.cfg.FormColumns()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return w.store.SetRevisionStatus(ctx, project, label, store.StatusExported)
}
