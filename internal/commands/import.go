package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Annarex/test-app-sub000/internal/importer"
)

func newImportCommand(opts *options) *cobra.Command {
	var project, format string
	var keep bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Ingest every file in the import directory as a revision",
		Long: "Each file becomes the revision named after it (2026-q1.csv -> 2026-q1). " +
			"Levels are resolved, aggregates computed and the file moved to import/processed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				name, err := w.project(project)
				if err != nil {
					return err
				}
				return runImport(ctx, cmd, w, name, format, keep)
			})
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project name")
	cmd.Flags().StringVar(&format, "format", "rows", "input format")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave imported files in place")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, w *workspace, project, format string, keep bool) error {
	svc, err := w.service()
	if err != nil {
		return err
	}
	registry := importer.DefaultRegistry()
	dir := w.path(w.cfg.Paths.Import)

	files, err := importer.Scan(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintf(out, "No files to import in %s\n", dir)
		return nil
	}

	for _, f := range files {
		label := importer.RevisionLabel(f.Name)
		form, err := registry.ParseFile(format, f.Path)
		if err != nil {
			w.record("import", project, label, nil, err, "")
			return err
		}
		res, err := svc.Ingest(ctx, project, label, form, f.Name)
		w.record("import", project, label, res, err, f.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d rows, %d discrepancies, %d unresolved levels\n",
			label, form.Len(), len(res.Discrepancies), len(res.Warnings))

		if !keep {
			if err := importer.MarkProcessed(dir, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
