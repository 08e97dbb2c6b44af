package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int      `json:"port"`
	Name    string   `json:"name"`
	Paths   []string `json:"paths"`
	Session struct {
		Timeout int `json:"timeout"`
	} `json:"session"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0644)
	require.NoError(t, err)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments and trailing commas are fine
		port: 8080,
		name: "default",
		session: { timeout: 20 },
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ name: "local" }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "local", cfg.Name)
	require.Equal(t, 20, cfg.Session.Timeout)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigOr(t *testing.T) {
	defaults := testConfig{Port: 8000, Name: "wcprobe", Paths: []string{"/shop/"}}
	defaults.Session.Timeout = 20

	cfg, err := ReadConfigOr(filepath.Join(t.TempDir(), "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ port: 9000, session: { timeout: 5 } }`)
	cfg, err = ReadConfigOr(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "wcprobe", cfg.Name)
	require.Equal(t, []string{"/shop/"}, cfg.Paths)
	require.Equal(t, 5, cfg.Session.Timeout)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ port: `)
	_, err := ReadConfigOr(filepath.Join(dir, "config.json5"), testConfig{})
	require.Error(t, err)
}
