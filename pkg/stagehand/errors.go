package stagehand

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := pipeline.Run(ctx, config)
//	if errors.Is(err, stagehand.ErrAccess) {
//	    // Input directory unreachable; nothing was processed
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAccess indicates the input directory is unreachable or unreadable.
	// This is fatal: it aborts the run before any file is processed.
	ErrAccess = errors.New("input directory inaccessible")

	// ErrParse indicates a data file is malformed. Recovered at file
	// granularity: the file is skipped and the run continues.
	ErrParse = errors.New("parse failed")

	// ErrLoad indicates a staging write failed. The transaction is rolled
	// back, the file is left unarchived, and the run continues.
	ErrLoad = errors.New("load failed")

	// ErrArchive indicates moving a processed file into the archive failed.
	// The file is left in place; already-loaded rows remain in staging.
	ErrArchive = errors.New("archive failed")

	// ErrMigration indicates the staging-to-warehouse transformation failed.
	// Reported at end of run; does not affect ingestion results.
	ErrMigration = errors.New("migration failed")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
//
// Only setup-time failures reach this mapping: per-file parse, load, and
// archive errors are absorbed by the pipeline and logged, never propagated
// to the process exit code.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrAccess):
		return ExitAccessError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	if isUsageError(errStr) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// isUsageError detects cobra/pflag argument errors, which surface as plain
// errors rather than typed values.
func isUsageError(errStr string) bool {
	return strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.HasPrefix(errStr, "unknown command") ||
		strings.HasPrefix(errStr, "accepts ") ||
		strings.HasPrefix(errStr, "required flag") ||
		strings.HasPrefix(errStr, "invalid argument")
}
