package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRootCmd_Subcommands(t *testing.T) {
	cmd := getRootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "api", cmd.Use)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
}

func TestGetRootCmd_Version(t *testing.T) {
	cmd := getRootCmd()
	cmd.Version = "v1.2.3"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestMigrate_SQLiteFile(t *testing.T) {
	t.Setenv("HEALTHINV_LOG_LEVEL", "error")
	dsn := filepath.Join(t.TempDir(), "health.db")

	cmd := getRootCmd()
	cmd.SetArgs([]string{"migrate", "--storage-driver", "sqlite", "--dsn", dsn})
	require.NoError(t, cmd.Execute())

	// idempotente
	cmd = getRootCmd()
	cmd.SetArgs([]string{"migrate", "--storage-driver", "sqlite", "--dsn", dsn})
	require.NoError(t, cmd.Execute())
}

func TestMigrate_MemoryIsRejected(t *testing.T) {
	t.Setenv("HEALTHINV_STORAGE_DRIVER", "memory")
	t.Setenv("HEALTHINV_STORAGE_DSN", "")
	t.Setenv("DB_DSN", "")

	cmd := getRootCmd()
	cmd.SetArgs([]string{"migrate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to migrate")
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv("HEALTHINV_HTTP_PORT", "9000")

	cmd := getRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9100", "--storage-driver", "sqlite", "--dsn", ":memory:"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
}
