package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Annarex/test-app-sub000/internal/runlog"
)

func newRevisionCommand(opts *options) *cobra.Command {
	revisionCmd := &cobra.Command{
		Use:   "revision",
		Short: "Manage stored revisions",
	}
	revisionCmd.AddCommand(
		newRevisionListCommand(opts),
		newRevisionDeleteCommand(opts),
		newRevisionHistoryCommand(opts),
	)
	return revisionCmd
}

func newRevisionListCommand(opts *options) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the revisions of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				name, err := w.project(project)
				if err != nil {
					return err
				}
				revs, err := w.store.Revisions(ctx, name)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(revs) == 0 {
					fmt.Fprintf(out, "No revisions in %s\n", name)
					return nil
				}
				for _, r := range revs {
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", r.Label, r.Status, r.SourceFile, r.UpdatedAt)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project name")
	return cmd
}

func newRevisionDeleteCommand(opts *options) *cobra.Command {
	var rf revisionFlags

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a revision and everything stored under it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				project, err := w.project(rf.project)
				if err != nil {
					return err
				}
				if err := w.store.DeleteRevision(ctx, project, rf.revision); err != nil {
					return err
				}
				w.record("delete", project, rf.revision, nil, nil, "")
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", project, rf.revision)
				return nil
			})
		},
	}
	rf.bind(cmd)
	return cmd
}

func newRevisionHistoryCommand(opts *options) *cobra.Command {
	var rf revisionFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the run log of a revision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				project, err := w.project(rf.project)
				if err != nil {
					return err
				}
				entries, err := runlog.Read(w.path(w.cfg.Paths.Logs))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, e := range runlog.ForRevision(entries, project, rf.revision) {
					fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%d\t%s\n",
						e.Timestamp.Format("2006-01-02 15:04:05"), e.Command, e.Outcome,
						e.Discrepancies, e.Warnings, e.Details)
				}
				return nil
			})
		},
	}
	rf.bind(cmd)
	return cmd
}
