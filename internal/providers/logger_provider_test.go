package providers

import (
	"auditstat/internal/structures"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeEnum_String(t *testing.T) {
	assert.Equal(t, "app", TypeApp.String())
	assert.Equal(t, "ingest", TypeIngest.String())
	assert.Equal(t, "engine", TypeEngine.String())
	assert.Equal(t, "export", TypeExport.String())
	assert.Equal(t, "app", TypeEnum(42).String())
}

func TestNewLogProvider_CreatesLogFiles(t *testing.T) {
	dir := t.TempDir()
	conf := &structures.Config{
		AppName: AppName,
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0600,
			Dir:   dir,
		},
	}

	logger, err := NewLogProvider(conf)
	require.NoError(t, err)

	logger.Infof(TypeApp, "test message")
	logger.Warnf(TypeEngine, "engine %s", "warning")
	logger.Debugf(TypeIngest, "filtered out at info level")
	logger.Close()

	for _, name := range []string{"app.log", "ingest.log", "engine.log", "export.log"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}

	engine, err := os.ReadFile(filepath.Join(dir, "engine.log"))
	require.NoError(t, err)
	assert.Contains(t, string(engine), "engine warning")
	assert.Contains(t, string(engine), `"type":"engine"`)

	ingest, err := os.ReadFile(filepath.Join(dir, "ingest.log"))
	require.NoError(t, err)
	assert.Empty(t, ingest)
}

func TestNewLogProvider_InvalidDir(t *testing.T) {
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/nonexistent/directory/path",
		},
	}

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}

func TestNewLogProvider_DirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := NewLogProvider(&structures.Config{Logger: structures.LoggerConfig{Level: "info", Dir: file}})
	assert.Error(t, err)
}

func TestNewLogProvider_InvalidLevel(t *testing.T) {
	_, err := NewLogProvider(&structures.Config{Logger: structures.LoggerConfig{Level: "loud", Dir: t.TempDir()}})
	assert.Error(t, err)
}

func TestNewNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Infof(TypeApp, "nothing")
	l.Errorf(TypeExport, "still nothing")
	l.Close()
}
