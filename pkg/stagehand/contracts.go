package stagehand

import "context"

// FileEligibilityProvider discovers data files that are safe to ingest.
type FileEligibilityProvider interface {
	// ListEligible returns the candidates in dir whose companion marker file
	// is present, ordered lexicographically by data file name so repeated
	// scans of an unchanged directory yield the same order.
	//
	// A directory with no eligible pairs yields an empty slice and nil error.
	// An unreachable or unreadable directory yields an error wrapping ErrAccess.
	ListEligible(dir string) ([]CandidateFile, error)
}

// TabularParser converts one candidate's bytes into a RecordSet.
type TabularParser interface {
	// Parse reads the candidate's data file and returns its tabular form
	// with the derived staging table name. Malformed input (bad delimiters,
	// inconsistent column counts, encoding errors) yields an error wrapping
	// ErrParse that carries the file path and row context.
	//
	// A header-only file is valid and yields a zero-row RecordSet.
	Parse(candidate CandidateFile) (RecordSet, error)
}

// TabularLoader writes record sets into the staging store.
type TabularLoader interface {
	// Load writes all rows of rs into its table within a single transaction:
	// either every row becomes visible or none do. Failures wrap ErrLoad and
	// leave the table unchanged.
	//
	// The same transaction records the file in the load ledger, so Load on a
	// candidate whose content was already loaded by a prior run returns a
	// LoadResult with AlreadyLoaded set and writes nothing.
	Load(ctx context.Context, rs RecordSet, batchID string) (LoadResult, error)

	// MarkArchived flips the ledger entry for the given source file after a
	// successful archive move.
	MarkArchived(ctx context.Context, sourcePath string) error
}

// Archiver relocates processed files out of the input directory.
type Archiver interface {
	// Archive moves the candidate's data and marker files into archiveDir,
	// preserving file names. The move is effectively atomic per file: a
	// crash mid-archive leaves at worst the original in place plus a temp
	// artifact, never data loss. Failures wrap ErrArchive and leave the
	// source files untouched.
	Archive(candidate CandidateFile, archiveDir string) (ArchiveRecord, error)
}

// BatchMigrator triggers the staging-to-warehouse transformation.
type BatchMigrator interface {
	// Migrate runs the downstream transformation once for the batch and
	// reports its outcome. Failures wrap ErrMigration; they do not roll back
	// already-archived files.
	Migrate(ctx context.Context) (MigrationOutcome, error)
}
