package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/enzymemap/pkg/errors"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "curate")
	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "version")
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "enzymemap dev")
}

func TestCurateCommand_RequiresInput(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"curate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestLoadRuleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	content := `[
		{"id": 1, "name": "alcohol oxidation", "pattern": "[CH2][OH].[NH][NH]>>[CH]=O.[NH2][NH2]", "group_id": 10}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lib, err := loadRuleFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, lib.Len())

	rule, ok := lib.Rule(1)
	require.True(t, ok)
	assert.Equal(t, "alcohol oxidation", rule.Name)
	assert.Equal(t, 10, rule.GroupID)
}

func TestLoadRuleFile_Missing(t *testing.T) {
	_, err := loadRuleFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceUnavailable))
}

func TestLoadRuleFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o600))

	_, err := loadRuleFile(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceParseError))
}

func TestLoadConfig_LogLevelOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enzymemap.yaml")
	content := "database:\n  host: localhost\n  user: curator\n  dbname: enzymemap\nlog:\n  level: info\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := loadConfig(&RootOptions{ConfigPath: path, LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
