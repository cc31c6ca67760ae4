package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectCommand(opts *options) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	projectCmd.AddCommand(newProjectCreateCommand(opts), newProjectListCommand(opts))
	return projectCmd
}

func newProjectCreateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				p, err := w.store.CreateProject(ctx, args[0])
				if err != nil {
					return fmt.Errorf("creating project: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
}

func newProjectListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				projects, err := w.store.Projects(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(projects) == 0 {
					fmt.Fprintln(out, "No projects")
					return nil
				}
				for _, p := range projects {
					fmt.Fprintf(out, "%s\t%s\t%s\n", p.Name, p.ID, p.CreatedAt)
				}
				return nil
			})
		},
	}
}
