package modlib

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnrarLocate(t *testing.T) {
	dir := t.TempDir()
	candidate := filepath.Join(dir, "unrar.exe")
	writeFile(t, candidate, "")

	tool := NewUnrarTool("", []string{filepath.Join(dir, "missing.exe"), candidate}, quietLogger())
	path, err := tool.Locate()
	require.NoError(t, err)
	assert.Equal(t, candidate, path)

	explicit := NewUnrarTool(candidate, nil, quietLogger())
	path, err = explicit.Locate()
	require.NoError(t, err)
	assert.Equal(t, candidate, path)
}

func TestUnrarLocateMissing(t *testing.T) {
	tool := NewUnrarTool("", []string{}, quietLogger())
	tool.lookPath = func(string) (string, error) { return "", errors.New("not in PATH") }

	_, err := tool.Locate()
	assert.True(t, IsErrorType(err, ErrExternalToolMissing), "%v", err)

	_, err = tool.List(context.Background(), "a.rar")
	assert.True(t, IsErrorType(err, ErrExternalToolMissing), "%v", err)

	err = tool.Extract(context.Background(), "a.rar", t.TempDir(), nil)
	assert.True(t, IsErrorType(err, ErrExternalToolMissing), "%v", err)

	explicit := NewUnrarTool(filepath.Join(t.TempDir(), "nope"), nil, quietLogger())
	_, err = explicit.Locate()
	assert.True(t, IsErrorType(err, ErrExternalToolMissing), "%v", err)
}

func TestPasswordFlag(t *testing.T) {
	assert.Equal(t, "-p-", passwordFlag(""))
	assert.Equal(t, "-psecret", passwordFlag("secret"))
}

func TestRemoveJunk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "__MACOSX", "Pkg", "._mod.ini"), "x")
	writeFile(t, filepath.Join(dir, "Pkg", ".DS_Store"), "x")
	writeFile(t, filepath.Join(dir, "Pkg", "Thumbs.db"), "x")
	writeFile(t, filepath.Join(dir, "Pkg", "mod.ini"), "x")

	require.NoError(t, removeJunk(dir))
	assert.NoDirExists(t, filepath.Join(dir, "__MACOSX"))
	assert.NoFileExists(t, filepath.Join(dir, "Pkg", ".DS_Store"))
	assert.NoFileExists(t, filepath.Join(dir, "Pkg", "Thumbs.db"))
	assert.FileExists(t, filepath.Join(dir, "Pkg", "mod.ini"))
}

func TestPasswordCandidates(t *testing.T) {
	pm := newPasswordManager([]string{"secret", "", "123"}, true)
	candidates := pm.candidates()
	assert.Equal(t, "", candidates[0])
	assert.Equal(t, "secret", candidates[1])
	assert.Len(t, candidates, 1+1+len(builtinPasswords()))

	assert.Equal(t, []string{""}, newPasswordManager(nil, false).candidates())
}
