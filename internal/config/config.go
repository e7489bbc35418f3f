// Package config loads the optional stagehand.yaml settings file.
//
// The file supplies defaults for connection parameters and pipeline
// behavior; command-line flags and environment variables override it.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Username          string `yaml:"username"`
	StagingDatabase   string `yaml:"staging_database"`
	WarehouseDatabase string `yaml:"warehouse_database"`
	SSLMode           string `yaml:"sslmode"`
	AuthMethod        string `yaml:"auth_method,omitempty"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID     string `yaml:"azure_client_id,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
	GoogleInstance    string `yaml:"google_instance,omitempty"`
}

type PipelineConfig struct {
	Delimiter       string `yaml:"delimiter"`
	MarkerExtension string `yaml:"marker_extension"`
	ArchiveDir      string `yaml:"archive_dir"`
	Timeout         string `yaml:"timeout"`
}

type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConfigFileName is the settings file looked up next to the input directory
// or at the path named by the STAGEHAND_CONFIG environment variable.
const ConfigFileName = "stagehand.yaml"

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "STAGEHAND_CONFIG"

// Load reads the settings file. The STAGEHAND_CONFIG environment variable
// takes precedence; otherwise the file is looked up inside sourcePath.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := os.Getenv(EnvConfigPath)
	if configPath == "" {
		configPath = filepath.Join(sourcePath, ConfigFileName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseTimeout converts the pipeline timeout string to a duration.
// An empty string yields zero (no timeout).
func (p *PipelineConfig) ParseTimeout() (time.Duration, error) {
	if p.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(p.Timeout)
}
