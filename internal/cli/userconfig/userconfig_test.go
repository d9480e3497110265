package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	selected, err := GetSelectedEnvironment()
	require.NoError(t, err)
	assert.Empty(t, selected)

	require.NoError(t, SetSelectedEnvironment("https://api.example/api"))
	require.NoError(t, SetLastRole("doctor"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example/api", cfg.SelectedEnvironment)
	assert.Equal(t, "doctor", cfg.LastRole)

	require.NoError(t, SetSelectedEnvironment(""))
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.SelectedEnvironment)
	assert.Equal(t, "doctor", cfg.LastRole)
}

func TestSave_ReplacesFilePrivately(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, Save(&UserConfig{SelectedEnvironment: "https://one.example/api"}))
	require.NoError(t, Save(&UserConfig{SelectedEnvironment: "https://two.example/api"}))

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "curatime", "config.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left behind")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://two.example/api", cfg.SelectedEnvironment)
}

func TestLoad_EmptyAndCorruptFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{}, cfg)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = Load()
	assert.ErrorContains(t, err, "failed to parse")
}
