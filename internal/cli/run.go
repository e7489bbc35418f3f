package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vvka-141/stagehand/internal/archiver"
	"github.com/vvka-141/stagehand/internal/config"
	"github.com/vvka-141/stagehand/internal/db"
	"github.com/vvka-141/stagehand/internal/files/parser"
	"github.com/vvka-141/stagehand/internal/files/scanner"
	"github.com/vvka-141/stagehand/internal/loader"
	"github.com/vvka-141/stagehand/internal/logging"
	"github.com/vvka-141/stagehand/internal/migrator"
	"github.com/vvka-141/stagehand/internal/services"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

var runCmd = &cobra.Command{
	Use:   "run <input_path>",
	Short: "Ingest eligible files and trigger the warehouse migration",
	Long: `Run executes one ingestion batch over the given input directory.

The run command:
1. Scans the input directory for data files with a companion marker file
2. Parses each eligible file into a typed record set
3. Loads each record set into its staging table in a single transaction
4. Archives each loaded file pair out of the input directory
5. Triggers the staging-to-warehouse migration exactly once

A file failure is logged and skipped; the batch continues with the next file
and still exits 0. Only setup failures (bad configuration, unreadable input
directory, no database connection) produce a non-zero exit code.

Arguments:
  input_path    Directory containing data files and their markers

Password Authentication:
  For security, password is NOT accepted as a CLI flag. Use one of:
    1. $PGPASSWORD environment variable
    2. .pgpass file (PostgreSQL standard: chmod 600 ~/.pgpass)
  Never use passwords in shell commands (visible in history and process list)

Examples:
  # Basic batch against local databases
  stagehand run /data/incoming --database-stg staging --database-dwh warehouse

  # Semicolon-delimited files, custom marker extension
  stagehand run /data/incoming --database-stg stg --database-dwh dwh \
    --delimiter ";" --marker-ext .ready

  # Azure Entra ID authentication
  stagehand run /data/incoming --database-stg stg --database-dwh dwh \
    --azure --azure-tenant-id <tenant> --azure-client-id <client>`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

type runFlagValues struct {
	conn            connFlagValues
	stagingDB       string
	warehouseDB     string
	archiveDir      string
	delimiter       string
	markerExtension string
	timeout         time.Duration
}

var runFlags runFlagValues

func init() {
	rootCmd.AddCommand(runCmd)

	// Granular connection flags (PostgreSQL standard)
	// Precedence: flag > environment variable > stagehand.yaml > default
	runCmd.Flags().StringVarP(&runFlags.conn.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > stagehand.yaml > localhost")
	runCmd.Flags().IntVarP(&runFlags.conn.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > stagehand.yaml > 5432")
	runCmd.Flags().StringVarP(&runFlags.conn.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or current OS user)")
	runCmd.Flags().StringVar(&runFlags.conn.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")

	// Target databases. Both live on the same server.
	runCmd.Flags().StringVar(&runFlags.stagingDB, "database-stg", "",
		"Staging database name (receives raw loaded rows)")
	runCmd.Flags().StringVar(&runFlags.warehouseDB, "database-dwh", "",
		"Warehouse database name (receives migrated history rows)")

	// Pipeline behavior
	runCmd.Flags().StringVar(&runFlags.archiveDir, "archive-dir", "",
		"Directory processed files are moved to\n"+
			"(default: <input_path>/"+stagehand.DefaultArchiveDirName+")")
	runCmd.Flags().StringVar(&runFlags.delimiter, "delimiter", "",
		"Field delimiter in data files, a single character (default: \"|\")")
	runCmd.Flags().StringVar(&runFlags.markerExtension, "marker-ext", "",
		"Extension of the companion marker file (default: "+stagehand.DefaultMarkerExtension+")")

	// Timeout flag - catastrophic failure protection, not normal timeout control
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", 30*time.Minute,
		"Catastrophic failure protection timeout (default 30m)\n"+
			"Prevents indefinite hangs from network issues or deadlocks\n"+
			"Examples: 30s, 5m, 1h30m")

	// Azure Entra ID flags
	runCmd.Flags().BoolVar(&runFlags.conn.azure, "azure", false,
		"Enable Azure Entra ID authentication\n"+
			"Uses DefaultAzureCredential chain (Managed Identity, Azure CLI, etc.)")
	runCmd.Flags().StringVar(&runFlags.conn.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	runCmd.Flags().StringVar(&runFlags.conn.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")

	// AWS RDS IAM flag
	runCmd.Flags().StringVar(&runFlags.conn.awsRegion, "aws-region", "",
		"Enable AWS RDS IAM authentication for the given region (overrides $AWS_REGION)")

	// Google Cloud SQL IAM flag
	runCmd.Flags().StringVar(&runFlags.conn.googleInstance, "google-instance", "",
		"Enable Google Cloud SQL IAM authentication for the given instance\n"+
			"connection name (project:region:instance)")
}

// buildIngestConfig assembles the pipeline configuration from CLI flags,
// environment, and the optional stagehand.yaml in the input directory.
// Extracted from runIngest for testability.
func buildIngestConfig(cmd *cobra.Command, inputPath string, verbose bool) (stagehand.IngestConfig, *config.ProjectConfig, error) {
	_ = godotenv.Load()

	fileCfg, err := config.Load(inputPath)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return stagehand.IngestConfig{}, nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}

	var filePipeline config.PipelineConfig
	if fileCfg != nil {
		filePipeline = fileCfg.Pipeline
		verbose = verbose || fileCfg.Logging.Verbose
	}

	delimiter, err := resolveDelimiter(firstNonEmpty(runFlags.delimiter, filePipeline.Delimiter))
	if err != nil {
		return stagehand.IngestConfig{}, nil, err
	}

	timeout := runFlags.timeout
	if !cmd.Flags().Changed("timeout") && filePipeline.Timeout != "" {
		parsed, parseErr := filePipeline.ParseTimeout()
		if parseErr != nil {
			return stagehand.IngestConfig{}, nil, fmt.Errorf("invalid timeout in %s: %w", config.ConfigFileName, parseErr)
		}
		timeout = parsed
	}

	ingestConfig := stagehand.IngestConfig{
		InputPath:         inputPath,
		ArchivePath:       firstNonEmpty(runFlags.archiveDir, filePipeline.ArchiveDir),
		StagingDatabase:   stagingDatabase(fileCfg),
		WarehouseDatabase: warehouseDatabase(fileCfg),
		Delimiter:         delimiter,
		MarkerExtension:   firstNonEmpty(runFlags.markerExtension, filePipeline.MarkerExtension, stagehand.DefaultMarkerExtension),
		Timeout:           timeout,
		Verbose:           verbose,
	}

	if err := ingestConfig.Validate(); err != nil {
		return stagehand.IngestConfig{}, nil, err
	}
	return ingestConfig, fileCfg, nil
}

func stagingDatabase(fileCfg *config.ProjectConfig) string {
	if fileCfg != nil {
		return firstNonEmpty(runFlags.stagingDB, fileCfg.Connection.StagingDatabase)
	}
	return runFlags.stagingDB
}

func warehouseDatabase(fileCfg *config.ProjectConfig) string {
	if fileCfg != nil {
		return firstNonEmpty(runFlags.warehouseDB, fileCfg.Connection.WarehouseDatabase)
	}
	return runFlags.warehouseDB
}

// resolveDelimiter validates that the delimiter is exactly one character.
func resolveDelimiter(value string) (rune, error) {
	if value == "" {
		return stagehand.DefaultDelimiter, nil
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q: %w", value, stagehand.ErrInvalidConfig)
	}
	return runes[0], nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	verbose := getVerboseFlag(cmd)

	ingestConfig, fileCfg, err := buildIngestConfig(cmd, inputPath, verbose)
	if err != nil {
		return err
	}
	verbose = ingestConfig.Verbose

	logger := logging.NewConsoleLogger(verbose)

	// Setup context with timeout and signal handling for graceful shutdown
	ctx := context.Background()
	var cancel context.CancelFunc
	if ingestConfig.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, ingestConfig.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling batch...")
		cancel()
	}()

	stagingPool, stagingClose, err := connectPool(ctx, &runFlags.conn, fileCfg, ingestConfig.StagingDatabase)
	if err != nil {
		return err
	}
	defer stagingClose()

	warehousePool, warehouseClose, err := connectPool(ctx, &runFlags.conn, fileCfg, ingestConfig.WarehouseDatabase)
	if err != nil {
		return err
	}
	defer warehouseClose()

	pipeline := services.NewPipeline(
		scanner.NewScanner(ingestConfig.MarkerExtension),
		parser.NewParser(ingestConfig.Delimiter),
		loader.NewStagingLoader(stagingPool, logger),
		archiver.NewArchiver(),
		migrator.NewMigrator(stagingPool, warehousePool, logger),
		logger,
	)

	if _, err := pipeline.Run(ctx, ingestConfig); err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}
	return nil
}

// connectPool resolves connection parameters for one database and opens its
// pool. The returned close function also releases connector-held resources
// (the Cloud SQL dialer implements io.Closer).
func connectPool(ctx context.Context, flags *connFlagValues, fileCfg *config.ProjectConfig, database string) (pool *pgxpool.Pool, closeFn func(), err error) {
	connConfig, err := resolveConnection(flags, fileCfg, database)
	if err != nil {
		return nil, nil, err
	}

	connector, err := db.NewConnector(connConfig)
	if err != nil {
		return nil, nil, err
	}

	p, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	closeFn = func() {
		p.Close()
		if closer, ok := connector.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	return p, closeFn, nil
}
