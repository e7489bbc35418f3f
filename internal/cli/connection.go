package cli

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"time"

	"github.com/vvka-141/stagehand/internal/config"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// connFlagValues holds the connection-related flag values shared by the
// staging and warehouse connections.
type connFlagValues struct {
	host, username, sslMode      string
	port                         int
	azure                        bool
	azureTenantID, azureClientID string
	awsRegion                    string
	googleInstance               string
}

// resolveConnection builds a ConnectionConfig for one target database.
// Precedence per parameter: flag > environment variable > stagehand.yaml >
// PostgreSQL default.
func resolveConnection(flags *connFlagValues, fileCfg *config.ProjectConfig, database string) (*stagehand.ConnectionConfig, error) {
	var fileConn config.ConnectionConfig
	if fileCfg != nil {
		fileConn = fileCfg.Connection
	}

	cfg := &stagehand.ConnectionConfig{
		Host:           firstNonEmpty(flags.host, os.Getenv("PGHOST"), fileConn.Host, "localhost"),
		Port:           resolvePort(flags.port, fileConn.Port),
		Username:       firstNonEmpty(flags.username, os.Getenv("PGUSER"), fileConn.Username, currentOSUser()),
		Password:       os.Getenv("PGPASSWORD"),
		Database:       database,
		SSLMode:        firstNonEmpty(flags.sslMode, os.Getenv("PGSSLMODE"), fileConn.SSLMode, "prefer"),
		AppName:        "stagehand",
		ConnectTimeout: 10 * time.Second,
	}

	if err := resolveAuthMethod(cfg, flags, fileConn); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAuthMethod picks the authentication mechanism. Cloud flags are
// mutually exclusive; standard username/password is the default.
func resolveAuthMethod(cfg *stagehand.ConnectionConfig, flags *connFlagValues, fileConn config.ConnectionConfig) error {
	azure := flags.azure || fileConn.AuthMethod == "azure"
	aws := flags.awsRegion != "" || fileConn.AuthMethod == "aws"
	google := flags.googleInstance != "" || fileConn.AuthMethod == "google"

	enabled := 0
	for _, on := range []bool{azure, aws, google} {
		if on {
			enabled++
		}
	}
	if enabled > 1 {
		return fmt.Errorf("conflicting authentication flags: pick one of --azure, --aws-region, --google-instance: %w",
			stagehand.ErrInvalidConfig)
	}

	switch {
	case azure:
		cfg.AuthMethod = stagehand.AuthMethodAzureEntraID
		cfg.AzureTenantID = firstNonEmpty(flags.azureTenantID, os.Getenv("AZURE_TENANT_ID"), fileConn.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.azureClientID, os.Getenv("AZURE_CLIENT_ID"), fileConn.AzureClientID)
		cfg.AzureClientSecret = os.Getenv("AZURE_CLIENT_SECRET")
	case aws:
		cfg.AuthMethod = stagehand.AuthMethodAWSIAM
		cfg.AWSRegion = firstNonEmpty(flags.awsRegion, os.Getenv("AWS_REGION"), fileConn.AWSRegion)
	case google:
		cfg.AuthMethod = stagehand.AuthMethodGoogleIAM
		cfg.GoogleInstance = firstNonEmpty(flags.googleInstance, fileConn.GoogleInstance)
	default:
		cfg.AuthMethod = stagehand.AuthMethodStandard
	}
	return nil
}

func resolvePort(flagPort, filePort int) int {
	if flagPort != 0 {
		return flagPort
	}
	if envPort := os.Getenv("PGPORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil && p > 0 {
			return p
		}
	}
	if filePort != 0 {
		return filePort
	}
	return 5432
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func currentOSUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
