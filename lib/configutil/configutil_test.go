package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are allowed
		name: "base",
		count: 3,
	}`), 0644))

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Count: 3}, config)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "app.json5"), []byte(`{name: "base", count: 3}`), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "app.local.json5"), []byte(`{name: "local"}`), 0644))

	config, err := ReadConfig[testConfig](filepath.Join(dir, "app.json5"))
	require.NoError(t, err)
	require.Equal(t, "local", config.Name)
	require.Equal(t, 3, config.Count)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
