package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Annarex/test-app-sub000/internal/config"
	"github.com/Annarex/test-app-sub000/internal/store"
)

func newInitCommand(opts *options) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new budgetcheck workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := runInit(ctx, absDir, project); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized budgetcheck workspace at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "create this project and make it the default")

	return cmd
}

func runInit(ctx context.Context, dir, project string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default(project)

	// Create directory structure.
	dirs := []string{
		cfg.Paths.Import,
		filepath.Join(cfg.Paths.Import, "processed"),
		cfg.Paths.Exports,
		cfg.Paths.Logs,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := "exports/\n*.db\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Create the database and apply migrations.
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.DSN(dir))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer st.Close()

	if project != "" {
		if _, err := st.CreateProject(ctx, project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
	}
	return nil
}
