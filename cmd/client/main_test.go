package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/client/config"
	"github.com/inkpress/inkpress/internal/client/workspace"
)

// newConfigTestCmd builds a pristine command carrying the root flag set, so
// flag state never leaks between tests.
func newConfigTestCmd(t *testing.T, dir string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "ink"}
	registerRootFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("dir", dir))
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(newConfigTestCmd(t, dir))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultServerURL, cfg.ServerURL)
	assert.Empty(t, cfg.Email)
	assert.Equal(t, filepath.Join(dir, workspace.MetadataDir, "config.json"), cfg.Path)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("INK_SERVER_URL", "https://blog.example.com")
	t.Setenv("INK_EMAIL", "env@example.com")
	t.Setenv("INK_SITE_KEY", "env-site-key")
	t.Setenv("INK_REFRESH_TOKEN", "env-refresh")

	cfg, err := loadConfig(newConfigTestCmd(t, t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, "https://blog.example.com", cfg.ServerURL)
	assert.Equal(t, "env@example.com", cfg.Email)
	assert.Equal(t, "env-site-key", cfg.SiteKey)
	assert.Equal(t, "env-refresh", cfg.RefreshToken)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	stored := &config.Config{
		ServerURL:    "https://stored.example.com",
		Email:        "stored@example.com",
		SiteKey:      "stored-site-key",
		RefreshToken: "stored-refresh",
		Root:         dir,
		Path:         filepath.Join(dir, workspace.MetadataDir, "config.json"),
	}
	require.NoError(t, stored.Save())

	cfg, err := loadConfig(newConfigTestCmd(t, dir))
	require.NoError(t, err)

	assert.Equal(t, "https://stored.example.com", cfg.ServerURL)
	assert.Equal(t, "stored@example.com", cfg.Email)
	assert.Equal(t, "stored-site-key", cfg.SiteKey)
	assert.Equal(t, "stored-refresh", cfg.RefreshToken)
	assert.Equal(t, stored.Path, cfg.Path)
}

func TestLoadConfigFlagBeatsFile(t *testing.T) {
	dir := t.TempDir()
	stored := &config.Config{
		ServerURL: "https://stored.example.com",
		Email:     "stored@example.com",
		Root:      dir,
		Path:      filepath.Join(dir, workspace.MetadataDir, "config.json"),
	}
	require.NoError(t, stored.Save())

	cmd := newConfigTestCmd(t, dir)
	require.NoError(t, cmd.PersistentFlags().Set("server", "https://flag.example.com"))
	require.NoError(t, cmd.PersistentFlags().Set("email", "flag@example.com"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example.com", cfg.ServerURL)
	assert.Equal(t, "flag@example.com", cfg.Email)
}

func TestLoadConfigRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, workspace.MetadataDir, "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("{not json"), 0600))

	_, err := loadConfig(newConfigTestCmd(t, dir))
	require.Error(t, err)
}
