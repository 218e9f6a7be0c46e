package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir a un directorio vacío para que no se cuele un .env del repo.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{
		"DISCORD_BOT_TOKEN", "DISCORD_GUILD_ID", "ADMIN_ROLE_IDS", "DATABASE_PATH",
		"HTTP_ADDR", "HTTP_SECRET", "LOG_LEVEL", "LOG_PRETTY",
		"PAIRING_INTERVAL", "PRIORITY_INTERVAL", "PANEL_INTERVAL",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("DISCORD_BOT_TOKEN", "abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Bot abc", cfg.DiscordToken)
	assert.Equal(t, "pairup.db", cfg.DatabasePath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 5*time.Second, cfg.PairingInterval)
	assert.Equal(t, 30*time.Second, cfg.PriorityInterval)
	assert.Equal(t, 30*time.Second, cfg.PanelInterval)
	assert.Empty(t, cfg.AdminRoleIDs)
}

func TestLoad_TokenOnlyRequiredToServe(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DiscordToken)
	assert.Error(t, cfg.RequireToken())
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	t.Setenv("DISCORD_BOT_TOKEN", "Bot xyz")
	t.Setenv("ADMIN_ROLE_IDS", "11, 22,,33")
	t.Setenv("PAIRING_INTERVAL", "2s")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Bot xyz", cfg.DiscordToken)
	assert.Equal(t, []string{"11", "22", "33"}, cfg.AdminRoleIDs)
	assert.Equal(t, 2*time.Second, cfg.PairingInterval)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_RejectsZeroInterval(t *testing.T) {
	isolate(t)
	t.Setenv("DISCORD_BOT_TOKEN", "abc")
	t.Setenv("PANEL_INTERVAL", "0s")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DISCORD_BOT_TOKEN=fromfile\nDATABASE_PATH=/data/pairup.db\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Bot fromfile", cfg.DiscordToken)
	assert.Equal(t, "/data/pairup.db", cfg.DatabasePath)
}
