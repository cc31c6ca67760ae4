package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Annarex/test-app-sub000/internal/deficit"
	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/report"
	"github.com/Annarex/test-app-sub000/internal/revision"
)

// ErrDiscrepancies is returned by check --strict when the revision does not
// reconcile.
var ErrDiscrepancies = errors.New("discrepancies found")

// revisionFlags binds --project and --revision.
type revisionFlags struct {
	project  string
	revision string
}

func (f *revisionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "project name")
	cmd.Flags().StringVarP(&f.revision, "revision", "r", "", "revision label (required)")
	_ = cmd.MarkFlagRequired("revision")
}

func newCalcCommand(opts *options) *cobra.Command {
	var rf revisionFlags

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Re-resolve levels and recompute a stored revision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				project, err := w.project(rf.project)
				if err != nil {
					return err
				}
				svc, err := w.service()
				if err != nil {
					return err
				}
				res, err := svc.Recalculate(ctx, project, rf.revision)
				w.record("calc", project, rf.revision, res, err, "")
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recalculated %s/%s: %d rows\n", project, rf.revision, res.Form.Len())
				printWarnings(out, res)
				printDeficit(out, res.Deficit, w.cfg.FormColumns().Budget)
				fmt.Fprintf(out, "%d discrepancies\n", len(res.Discrepancies))
				return nil
			})
		},
	}
	rf.bind(cmd)
	return cmd
}

func newCheckCommand(opts *options) *cobra.Command {
	var rf revisionFlags
	var xlsx string
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report the discrepancies of a stored revision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				project, err := w.project(rf.project)
				if err != nil {
					return err
				}
				svc, err := w.service()
				if err != nil {
					return err
				}
				res, err := svc.Check(ctx, project, rf.revision)
				if err != nil {
					w.record("check", project, rf.revision, nil, err, "")
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, report.Table(res.Discrepancies))

				details := ""
				if xlsx != "" {
					path := xlsx
					if !filepath.IsAbs(path) {
						path = filepath.Join(w.path(w.cfg.Paths.Exports), path)
					}
					if err := report.SaveWorkbook(path, res.Form, w.cfg.FormColumns(), res.Discrepancies); err != nil {
						w.record("check", project, rf.revision, res, err, "")
						return err
					}
					details = "xlsx=" + path
					fmt.Fprintf(out, "Wrote %s\n", path)
				}
				w.record("check", project, rf.revision, res, nil, details)

				if strict && len(res.Discrepancies) > 0 {
					return fmt.Errorf("%s/%s: %w (%d)", project, rf.revision, ErrDiscrepancies, len(res.Discrepancies))
				}
				return nil
			})
		},
	}
	rf.bind(cmd)
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also write an XLSX workbook (relative paths go to the exports dir)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when discrepancies are found")
	return cmd
}

func newTreeCommand(opts *options) *cobra.Command {
	var rf revisionFlags
	var section, budget, column string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the row hierarchy of a section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sec, err := model.ParseSection(section)
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, func(ctx context.Context, w *workspace) error {
				project, err := w.project(rf.project)
				if err != nil {
					return err
				}
				bt, col, err := treeAxis(sec, budget, column, w.cfg.FormColumns())
				if err != nil {
					return err
				}
				svc, err := w.service()
				if err != nil {
					return err
				}
				res, err := svc.Check(ctx, project, rf.revision)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.Tree(res.Form.Rows(sec), bt, col, res.Discrepancies))
				return nil
			})
		},
	}
	rf.bind(cmd)
	cmd.Flags().StringVar(&section, "section", string(model.SectionIncome), "section: income, expense, financing, consolidated")
	cmd.Flags().StringVar(&budget, "budget", "", "budget type (default approved, receipts for consolidated)")
	cmd.Flags().StringVar(&column, "column", "", "value column (default the first configured column)")
	return cmd
}

// treeAxis picks the budget type and column shown by tree.
func treeAxis(sec model.Section, budget, column string, cols model.Columns) (model.BudgetType, string, error) {
	bt := model.BudgetTypesFor(sec)[0]
	if budget != "" {
		var err error
		if bt, err = model.ParseBudgetType(budget); err != nil {
			return "", "", err
		}
	}
	available := cols.For(sec)
	if column == "" {
		if len(available) == 0 {
			return "", "", fmt.Errorf("no columns configured for %s", sec)
		}
		return bt, available[0], nil
	}
	for _, c := range available {
		if c == column {
			return bt, column, nil
		}
	}
	return "", "", fmt.Errorf("unknown %s column %q", sec, column)
}

func printWarnings(out io.Writer, res *revision.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

func printDeficit(out io.Writer, res deficit.Result, columns []string) {
	if !res.Available() {
		fmt.Fprintln(out, "Deficit/surplus: not available")
		return
	}
	for _, bt := range []model.BudgetType{model.BudgetApproved, model.BudgetExecuted} {
		vec := res.For(bt)
		for _, c := range columns {
			v := vec.Get(c)
			if v.NA {
				continue
			}
			fmt.Fprintf(out, "Deficit/surplus %s %q: %s\n", bt, c, v)
		}
	}
}
