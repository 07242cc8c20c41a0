package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/enzymemap/pkg/errors"
)

func TestStatic_Resolve(t *testing.T) {
	s := NewStatic(map[string][]string{
		"ethanol": {"[CH3][CH2][OH]"},
		"water":   {"[OH2]"},
		"empty":   {},
	}, nil)

	got, err := s.Resolve(context.Background(), []string{"ethanol", "water", "empty", "unobtainium"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"ethanol": {"[CH3][CH2][OH]"},
		"water":   {"[OH2]"},
	}, got)
}

func TestStatic_NilTable(t *testing.T) {
	s := NewStatic(nil, nil)
	assert.Zero(t, s.Len())

	got, err := s.Resolve(context.Background(), []string{"anything"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "structures.json")
	content := `{"ethanol": ["[CH3][CH2][OH]"], "NAD+": ["[NH][NH]"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	got, err := s.Resolve(context.Background(), []string{"NAD+"})
	require.NoError(t, err)
	assert.Equal(t, []string{"[NH][NH]"}, got["NAD+"])
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceUnavailable))
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadFile(path, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceParseError))
}
