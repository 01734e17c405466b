package providers

import (
	"auditstat/internal/structures"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auditstat.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigProvider_Defaults(t *testing.T) {
	conf, err := NewConfigProvider(&structures.CliFlags{})
	require.NoError(t, err)

	assert.Equal(t, AppName, conf.AppName)
	assert.Equal(t, "SECO Reconciliation service", conf.Engine.ServiceLabel)
	assert.Equal(t, 7*24*time.Hour, conf.Engine.ShortWindow)
	assert.Equal(t, 30*24*time.Hour, conf.Engine.LongWindow)
	assert.True(t, conf.Export.Compress)
	assert.Equal(t, 30*time.Second, conf.Watch.Interval)
	assert.False(t, conf.Cache.Enabled)
}

func TestNewConfigProvider_FromFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  timezone: Europe/Berlin
  shortWindow: 48h
  longWindow: 336h
ingest:
  dir: /data/export
export:
  filePath: /var/lib/auditstat/snapshot.json
  compress: false
cache:
  enabled: true
  size: 8
metrics:
  enabled: true
  textfile: /var/lib/node_exporter/auditstat.prom
`)

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, path, conf.Path)
	assert.True(t, conf.Debug)
	assert.Equal(t, "Europe/Berlin", conf.Engine.Timezone)
	assert.Equal(t, "Europe/Berlin", conf.Location().String())
	assert.Equal(t, 48*time.Hour, conf.Engine.ShortWindow)
	assert.Equal(t, "/data/export", conf.Ingest.Dir)
	assert.False(t, conf.Export.Compress)
	assert.Equal(t, 8, conf.Cache.Size)
	assert.Equal(t, "/var/lib/node_exporter/auditstat.prom", conf.Metrics.Textfile)
	// untouched keys keep their defaults
	assert.Equal(t, "service-account@system.internal", conf.Engine.ServiceEmail)
}

func TestNewConfigProvider_EnvOverride(t *testing.T) {
	t.Setenv("AUDITSTAT_INGEST_DIR", "/from/env")
	t.Setenv("AUDITSTAT_LOG_LEVEL", "debug")

	conf, err := NewConfigProvider(&structures.CliFlags{})
	require.NoError(t, err)
	assert.Equal(t, "/from/env", conf.Ingest.Dir)
	assert.Equal(t, "debug", conf.Logger.Level)
}

func TestNewConfigProvider_MissingFile(t *testing.T) {
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: "/nonexistent/auditstat.yml"})
	assert.Error(t, err)
}

func TestNewConfigProvider_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
engine:
  shortWindow: 720h
  longWindow: 24h
`)
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err)
}

func TestConfig_LocationFallback(t *testing.T) {
	c := &structures.Config{Engine: structures.EngineConfig{Timezone: "Not/AZone"}}
	assert.Equal(t, time.Local, c.Location())

	c.Engine.Timezone = ""
	assert.Equal(t, time.Local, c.Location())
}
