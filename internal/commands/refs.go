package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Annarex/test-app-sub000/internal/code"
	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/refs"
)

func newRefsCommand(opts *options) *cobra.Command {
	refsCmd := &cobra.Command{
		Use:   "refs",
		Short: "Manage classification reference tables",
	}
	refsCmd.AddCommand(newRefsLoadCommand(opts), newRefsShowCommand(opts))
	return refsCmd
}

func parseRefKind(s string) (model.Section, error) {
	kind, err := model.ParseSection(s)
	if err != nil {
		return "", err
	}
	if !refs.Referenced(kind) {
		return "", fmt.Errorf("section %s has no reference table", kind)
	}
	return kind, nil
}

func newRefsLoadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "load <section> <file.csv>",
		Short: "Replace a reference table from a CSV file (code,name,level,document)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseRefKind(args[0])
			if err != nil {
				return err
			}
			table, err := refs.LoadFile(args[1], kind)
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				if err := w.store.SaveReference(ctx, kind, table.All()); err != nil {
					return fmt.Errorf("saving %s references: %w", kind, err)
				}
				w.logger.Info("references loaded", "section", kind, "records", table.Len())
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d %s reference records\n", table.Len(), kind)
				return nil
			})
		},
	}
}

func newRefsShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <section>",
		Short: "Print a reference table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseRefKind(args[0])
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				records, err := w.store.LoadReference(ctx, kind)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintf(out, "No %s references\n", kind)
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(out, "%s\t%d\t%s\n", code.Format(r.Code, kind), r.Level, r.Name)
				}
				return nil
			})
		},
	}
}
