package stagehand

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IngestConfig contains all parameters needed for one pipeline run.
type IngestConfig struct {
	// InputPath is the directory containing data files and their markers
	InputPath string

	// ArchivePath is where processed files are moved.
	// Defaults to <InputPath>/Archive when empty.
	ArchivePath string

	// StagingDatabase is the database receiving raw loaded rows
	StagingDatabase string

	// WarehouseDatabase is the database receiving migrated rows
	WarehouseDatabase string

	// Delimiter is the field separator in data files
	Delimiter rune

	// MarkerExtension is the extension of the companion "ready" file
	MarkerExtension string

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the IngestConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.InputPath == "" {
		errs = append(errs, fmt.Errorf("InputPath is required: %w", ErrInvalidConfig))
	}

	if c.StagingDatabase == "" {
		errs = append(errs, fmt.Errorf("StagingDatabase is required: %w", ErrInvalidConfig))
	}

	if c.WarehouseDatabase == "" {
		errs = append(errs, fmt.Errorf("WarehouseDatabase is required: %w", ErrInvalidConfig))
	}

	if c.Delimiter == 0 {
		errs = append(errs, fmt.Errorf("Delimiter is required: %w", ErrInvalidConfig))
	}

	if c.MarkerExtension == "" {
		errs = append(errs, fmt.Errorf("MarkerExtension is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS IAM authentication (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name, project:region:instance
	// (used when AuthMethod is AuthMethodGoogleIAM)
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// CandidateFile is a data file whose companion marker is present, making it
// eligible for ingestion. Both paths are absolute. A CandidateFile only
// exists when both files were present at scan time.
type CandidateFile struct {
	// DataPath is the absolute path to the data file
	DataPath string

	// MarkerPath is the absolute path to the companion marker file
	MarkerPath string

	// DiscoveredAt is when the scan found the pair
	DiscoveredAt time.Time
}

// ColumnType is the inferred PostgreSQL type of a column.
type ColumnType string

const (
	ColumnBigint    ColumnType = "bigint"
	ColumnNumeric   ColumnType = "numeric"
	ColumnBoolean   ColumnType = "boolean"
	ColumnDate      ColumnType = "date"
	ColumnTimestamp ColumnType = "timestamp"
	ColumnText      ColumnType = "text"
)

// Column is one column of a RecordSet: its header name (normalized to a
// valid SQL identifier) and inferred type.
type Column struct {
	Name string
	Type ColumnType
}

// RecordSet is the in-memory tabular form of one parsed data file.
// All rows have exactly len(Columns) values, in column order.
// Empty values are represented as empty strings; the loader writes them as NULL.
type RecordSet struct {
	// Table is the staging table name derived from the source file name
	Table string

	// Columns is the ordered column schema
	Columns []Column

	// Rows holds the data rows in file order
	Rows [][]string

	// SourcePath is the file the set was parsed from
	SourcePath string
}

// LoadResult reports the outcome of loading one RecordSet into staging.
type LoadResult struct {
	Table       string
	RowsWritten int64

	// AlreadyLoaded is true when the ledger showed this file content was
	// loaded by a previous run and the load was skipped.
	AlreadyLoaded bool
}

// ArchiveRecord reports a completed archive move.
type ArchiveRecord struct {
	OriginalPath string
	ArchivedPath string
	ArchivedAt   time.Time
}

// MigrationOutcome reports the staging-to-warehouse transformation result.
type MigrationOutcome struct {
	TablesProcessed int
	RowsMigrated    int64
}

// BatchSummary aggregates one pipeline run for end-of-run reporting.
type BatchSummary struct {
	// BatchID identifies the run in logs and in the load ledger
	BatchID uuid.UUID

	// Candidates is the number of eligible files found by the scan
	Candidates int

	// Loaded is the number of files loaded and archived this run
	Loaded int

	// Reprocessed is the number of files found already loaded by a prior
	// run (ledger hit) whose archive step was retried
	Reprocessed int

	// Failed is the number of files that failed to parse, load, or archive
	Failed int

	// RowsWritten is the total staging rows written this run
	RowsWritten int64

	// Migration holds the outcome of the batch migration, nil if it failed
	Migration *MigrationOutcome

	// MigrationErr is the migration failure, nil on success
	MigrationErr error
}
