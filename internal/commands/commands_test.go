package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annarex/test-app-sub000/internal/commands"
	"github.com/Annarex/test-app-sub000/internal/config"
	"github.com/Annarex/test-app-sub000/internal/runlog"
)

const (
	testProject  = "oblast"
	testRevision = "form_0503317"
	subject      = "бюджет субъекта Российской Федерации"
)

func runBudgetcheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// initWorkspace creates a workspace with references loaded and the sample
// form waiting in the import directory.
func initWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runBudgetcheck(t, "init", dir, "--project", testProject)
	require.NoError(t, err)

	for section, file := range map[string]string{"income": "refs_income.csv", "financing": "refs_financing.csv"} {
		out, err := runBudgetcheck(t, "--dir", dir, "refs", "load", section, filepath.Join("..", "..", "testdata", file))
		require.NoError(t, err, out)
	}

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "form_0503317.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", testRevision+".csv"), data, 0o644))
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runBudgetcheck(t, "init", dir, "--project", testProject)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized budgetcheck workspace")

	for _, d := range []string{"import", filepath.Join("import", "processed"), "exports", "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}
	assert.FileExists(t, filepath.Join(dir, "budgetcheck.db"))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, testProject, cfg.Project)

	out, err = runBudgetcheck(t, "--dir", dir, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, testProject)
}

func TestInit_AlreadyInitialized(t *testing.T) {
	dir := t.TempDir()
	_, err := runBudgetcheck(t, "init", dir)
	require.NoError(t, err)
	_, err = runBudgetcheck(t, "init", dir)
	assert.Error(t, err)
}

func TestCommands_NotAWorkspace(t *testing.T) {
	_, err := runBudgetcheck(t, "--dir", t.TempDir(), "project", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProjectCreate(t *testing.T) {
	dir := t.TempDir()
	_, err := runBudgetcheck(t, "init", dir)
	require.NoError(t, err)

	out, err := runBudgetcheck(t, "--dir", dir, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No projects")

	out, err = runBudgetcheck(t, "--dir", dir, "project", "create", "krai")
	require.NoError(t, err)
	assert.Contains(t, out, "Created project krai")

	_, err = runBudgetcheck(t, "--dir", dir, "project", "create", "krai")
	assert.Error(t, err)
}

func TestRefs(t *testing.T) {
	dir := initWorkspace(t)

	out, err := runBudgetcheck(t, "--dir", dir, "refs", "show", "income")
	require.NoError(t, err)
	assert.Contains(t, out, "000 1 00 00000 00 0000 000")
	assert.Contains(t, out, "\t2\t")

	_, err = runBudgetcheck(t, "--dir", dir, "refs", "show", "expense")
	assert.Error(t, err)
	_, err = runBudgetcheck(t, "--dir", dir, "refs", "load", "income", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestImportCheckExport(t *testing.T) {
	dir := initWorkspace(t)

	out, err := runBudgetcheck(t, "--dir", dir, "import")
	require.NoError(t, err, out)
	assert.Contains(t, out, testRevision+": 15 rows, 2 discrepancies, 0 unresolved levels")
	assert.NoFileExists(t, filepath.Join(dir, "import", testRevision+".csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "processed", testRevision+".csv"))

	out, err = runBudgetcheck(t, "--dir", dir, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "No files to import")

	out, err = runBudgetcheck(t, "--dir", dir, "check", "-r", testRevision)
	require.NoError(t, err)
	assert.Contains(t, out, "Доходы бюджета - всего")
	assert.Contains(t, out, "Всего расхождений: 2")

	_, err = runBudgetcheck(t, "--dir", dir, "check", "-r", testRevision, "--strict")
	require.Error(t, err)
	assert.ErrorIs(t, err, commands.ErrDiscrepancies)

	out, err = runBudgetcheck(t, "--dir", dir, "check", "-r", testRevision, "--xlsx", "check.xlsx")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "exports", "check.xlsx"))
	assert.Contains(t, out, "Wrote ")

	out, err = runBudgetcheck(t, "--dir", dir, "calc", "-r", testRevision)
	require.NoError(t, err)
	assert.Contains(t, out, "Recalculated oblast/"+testRevision+": 15 rows")
	assert.Contains(t, out, "Deficit/surplus approved")
	assert.Contains(t, out, "2 discrepancies")

	out, err = runBudgetcheck(t, "--dir", dir, "tree", "-r", testRevision, "--budget", "executed", "--column", subject)
	require.NoError(t, err)
	assert.Contains(t, out, "Доходы / Исполненный")
	assert.Contains(t, out, "950 → 900")

	out, err = runBudgetcheck(t, "--dir", dir, "export", "-r", testRevision)
	require.NoError(t, err)
	exported := filepath.Join(dir, "exports", testProject+"-"+testRevision+".csv")
	assert.FileExists(t, exported)
	assert.Contains(t, out, exported)

	out, err = runBudgetcheck(t, "--dir", dir, "revision", "list")
	require.NoError(t, err)
	assert.Contains(t, out, testRevision+"\texported\t"+testRevision+".csv")

	entries, err := runlog.Read(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	var commandsRun []string
	for _, e := range entries {
		commandsRun = append(commandsRun, e.Command)
	}
	assert.Equal(t, []string{"import", "check", "check", "check", "calc", "export"}, commandsRun)
	assert.Equal(t, 2, entries[0].Discrepancies)

	out, err = runBudgetcheck(t, "--dir", dir, "revision", "history", "-r", testRevision)
	require.NoError(t, err)
	assert.Contains(t, out, "calc\tok\t2\t0")

	out, err = runBudgetcheck(t, "--dir", dir, "revision", "delete", "-r", testRevision)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")
	out, err = runBudgetcheck(t, "--dir", dir, "revision", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No revisions")
}

func TestCheck_UnknownRevision(t *testing.T) {
	dir := initWorkspace(t)
	_, err := runBudgetcheck(t, "--dir", dir, "check", "-r", "nope")
	assert.Error(t, err)

	entries, err := runlog.Read(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.OutcomeFailed, entries[0].Outcome)
}

func TestTree_UnknownColumn(t *testing.T) {
	dir := initWorkspace(t)
	_, err := runBudgetcheck(t, "--dir", dir, "import")
	require.NoError(t, err)
	_, err = runBudgetcheck(t, "--dir", dir, "tree", "-r", testRevision, "--column", "nope")
	assert.Error(t, err)
	_, err = runBudgetcheck(t, "--dir", dir, "tree", "-r", testRevision, "--section", "assets")
	assert.Error(t, err)
}
