package stagehand

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Batch completed (per-file failures do not change this)
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitAccessError     = 15 // Input directory unreachable or unreadable
)

const (
	// DefaultMarkerExtension is the extension of the companion file a producer
	// writes once the paired data file is complete.
	DefaultMarkerExtension = ".complete"

	// DefaultDataExtension is the extension of ingestible data files.
	DefaultDataExtension = ".csv"

	// DefaultDelimiter is the field separator used by upstream producers.
	DefaultDelimiter = '|'

	// DefaultArchiveDirName is the archive directory created under the input
	// path when no explicit archive directory is configured.
	DefaultArchiveDirName = "Archive"

	// LedgerTableName is the staging table recording which files have been
	// loaded and archived. Written in the same transaction as the row load so
	// a crash between load and archive is detectable on the next run.
	LedgerTableName = "stagehand_loaded_file"

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3
)
