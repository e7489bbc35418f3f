package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	content := `connection:
  host: myhost
  port: 5433
  username: myuser
  staging_database: stg
  warehouse_database: dwh
  sslmode: require
  auth_method: azure
  azure_tenant_id: tenant-1
  azure_client_id: client-1

pipeline:
  delimiter: "|"
  marker_extension: .complete
  archive_dir: /data/archive
  timeout: 10m

logging:
  verbose: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "myhost", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "myuser", cfg.Connection.Username)
	assert.Equal(t, "stg", cfg.Connection.StagingDatabase)
	assert.Equal(t, "dwh", cfg.Connection.WarehouseDatabase)
	assert.Equal(t, "require", cfg.Connection.SSLMode)
	assert.Equal(t, "azure", cfg.Connection.AuthMethod)
	assert.Equal(t, "tenant-1", cfg.Connection.AzureTenantID)
	assert.Equal(t, "client-1", cfg.Connection.AzureClientID)
	assert.Equal(t, "|", cfg.Pipeline.Delimiter)
	assert.Equal(t, ".complete", cfg.Pipeline.MarkerExtension)
	assert.Equal(t, "/data/archive", cfg.Pipeline.ArchiveDir)
	assert.Equal(t, "10m", cfg.Pipeline.Timeout)
	assert.True(t, cfg.Logging.Verbose)
}

func TestLoad_MinimalYAML(t *testing.T) {
	dir := t.TempDir()
	content := `pipeline:
  delimiter: ";"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "", cfg.Connection.Host)
	assert.Equal(t, 0, cfg.Connection.Port)
	assert.Equal(t, ";", cfg.Pipeline.Delimiter)
	assert.False(t, cfg.Logging.Verbose)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	content := `connection:
  host: from-env-path
`
	override := filepath.Join(other, "custom.yaml")
	require.NoError(t, os.WriteFile(override, []byte(content), 0644))
	t.Setenv(EnvConfigPath, override)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env-path", cfg.Connection.Host)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{{invalid"), 0644))

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(""), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ProjectConfig{}, *cfg)
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty means no timeout", timeout: "", want: 0},
		{name: "minutes", timeout: "10m", want: 10 * time.Minute},
		{name: "mixed units", timeout: "1h30m", want: 90 * time.Minute},
		{name: "garbage", timeout: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PipelineConfig{Timeout: tt.timeout}
			got, err := p.ParseTimeout()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
