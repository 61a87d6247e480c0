package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webdesk/desktop"
)

func TestDefaults(t *testing.T) {
	v, err := New(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err, "an explicit config file must exist")
	assert.Nil(t, v)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	v, err = New("")
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.False(t, c.Write)
	assert.Equal(t, "bolt", c.Store.Driver)
	assert.Equal(t, filepath.Join(c.DataDir, "desktop.db"), c.Store.Path)
	assert.Equal(t, filepath.Join(c.DataDir, "uploads"), c.UploadDir)
	assert.Equal(t, 30*time.Second, c.AutosaveInterval)

	l, err := c.DesktopLayout()
	require.NoError(t, err)
	assert.Equal(t, desktop.DesktopLayout(), l)
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
addr: ":9000"
data_dir: `+dir+`
store:
  driver: sqlite
layout:
  density: mobile
  policy: grid
  columns: 3
autosave_interval: 5s
`), 0644))
	t.Setenv("WEBDESK_WRITE", "true")
	t.Setenv("WEBDESK_LAYOUT_GAP", "0")

	v, err := New(cfgFile)
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Addr)
	assert.True(t, c.Write)
	assert.Equal(t, filepath.Join(dir, "desktop.sqlite"), c.Store.Path)
	assert.Equal(t, 5*time.Second, c.AutosaveInterval)

	l, err := c.DesktopLayout()
	require.NoError(t, err)
	assert.Equal(t, 60, l.GridSize)
	assert.Equal(t, desktop.PolicyGrid, l.Policy)
	assert.Equal(t, 3, l.Columns)
	assert.Equal(t, 0, l.Gap)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for key, value := range map[string]interface{}{
		"store.driver":     "redis",
		"log_level":        "loud",
		"layout.policy":    "spiral",
		"layout.icon_size": -5,
	} {
		v, err := New("")
		require.NoError(t, err)
		v.Set(key, value)
		if key == "layout.icon_size" {
			// Non-positive sizes keep the preset.
			_, err = Load(v)
			assert.NoError(t, err, key)
			continue
		}
		_, err = Load(v)
		assert.Error(t, err, key)
	}
}
