package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/stagehand/internal/checksum"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// StagingLoader loads record sets into the staging database via pgx.
type StagingLoader struct {
	pool       *pgxpool.Pool
	calculator checksum.Calculator
	logger     stagehand.Logger
}

// NewStagingLoader creates a loader writing to the given staging pool.
// Panics if pool or logger is nil.
func NewStagingLoader(pool *pgxpool.Pool, logger stagehand.Logger) *StagingLoader {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StagingLoader{
		pool:       pool,
		calculator: checksum.SHA256{},
		logger:     logger,
	}
}

// Load writes all rows of rs into its staging table within a single
// transaction. The staging table is created on first sight of a file for
// that table; later loads append. The same transaction records the file in
// the load ledger.
//
// If the ledger already holds an entry for this file name and content
// checksum, nothing is written and the result has AlreadyLoaded set.
func (l *StagingLoader) Load(ctx context.Context, rs stagehand.RecordSet, batchID string) (stagehand.LoadResult, error) {
	if rs.Table == "" {
		return stagehand.LoadResult{}, fmt.Errorf("%w: record set has no table name", stagehand.ErrLoad)
	}

	fileName := filepath.Base(rs.SourcePath)
	contentSum := recordSetChecksum(l.calculator, rs)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return stagehand.LoadResult{}, fmt.Errorf("%w: %s: failed to begin transaction: %v", stagehand.ErrLoad, fileName, err)
	}
	defer tx.Rollback(ctx)

	if err := ensureLedgerTable(ctx, tx); err != nil {
		return stagehand.LoadResult{}, fmt.Errorf("%w: %s: %v", stagehand.ErrLoad, fileName, err)
	}

	loaded, err := isAlreadyLoaded(ctx, tx, fileName, contentSum)
	if err != nil {
		return stagehand.LoadResult{}, fmt.Errorf("%w: %s: %v", stagehand.ErrLoad, fileName, err)
	}
	if loaded {
		l.logger.Verbose("Skipping %s: content already loaded by a previous run", fileName)
		return stagehand.LoadResult{Table: rs.Table, AlreadyLoaded: true}, nil
	}

	if err := l.ensureStagingTable(ctx, tx, rs); err != nil {
		return stagehand.LoadResult{}, fmt.Errorf("%w: %s: %v", stagehand.ErrLoad, fileName, err)
	}

	written, err := l.copyRows(ctx, tx, rs)
	if err != nil {
		return stagehand.LoadResult{}, fmt.Errorf("%w: %s: %v", stagehand.ErrLoad, fileName, err)
	}

	if err := recordLoad(ctx, tx, fileName, contentSum, batchID); err != nil {
		return stagehand.LoadResult{}, fmt.Errorf("%w: %s: %v", stagehand.ErrLoad, fileName, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return stagehand.LoadResult{}, fmt.Errorf("%w: %s: failed to commit: %v", stagehand.ErrLoad, fileName, err)
	}

	l.logger.Verbose("Loaded %d rows into %s from %s", written, rs.Table, fileName)
	return stagehand.LoadResult{Table: rs.Table, RowsWritten: written}, nil
}

// MarkArchived flips the ledger entry for the given source file after a
// successful archive move. Runs outside the load transaction: the archive
// happens after commit, so the flag is advisory and a crash between archive
// and this update only costs a redundant archive attempt, never a reload.
func (l *StagingLoader) MarkArchived(ctx context.Context, sourcePath string) error {
	fileName := filepath.Base(sourcePath)
	_, err := l.pool.Exec(ctx,
		`UPDATE `+stagehand.LedgerTableName+` SET archived = true WHERE file_name = $1`,
		fileName)
	if err != nil {
		return fmt.Errorf("%w: %s: failed to mark archived: %v", stagehand.ErrLoad, fileName, err)
	}
	return nil
}

// ensureStagingTable creates the staging table for rs if it does not exist.
// Existing tables are appended to; a column mismatch surfaces later as a
// copy error rather than silently reshaping the table.
func (l *StagingLoader) ensureStagingTable(ctx context.Context, tx pgx.Tx, rs stagehand.RecordSet) error {
	defs := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdentifier(col.Name), col.Type)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdentifier(rs.Table), strings.Join(defs, ", "))

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create staging table %s: %v", rs.Table, err)
	}
	return nil
}

// copyRows streams the record set into its table with the COPY protocol.
// Empty field values become NULL.
func (l *StagingLoader) copyRows(ctx context.Context, tx pgx.Tx, rs stagehand.RecordSet) (int64, error) {
	if len(rs.Rows) == 0 {
		return 0, nil
	}

	columnNames := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		columnNames[i] = col.Name
	}

	written, err := tx.CopyFrom(ctx,
		pgx.Identifier{rs.Table},
		columnNames,
		pgx.CopyFromSlice(len(rs.Rows), func(i int) ([]any, error) {
			row := rs.Rows[i]
			values := make([]any, len(row))
			for j, v := range row {
				if v == "" {
					values[j] = nil
				} else {
					values[j] = v
				}
			}
			return values, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into %s: %v", rs.Table, err)
	}
	return written, nil
}

// recordSetChecksum produces a deterministic checksum of a record set's
// header and data, used for ledger duplicate detection. Field values are
// separated by 0x1f and rows by 0x1e so shifting a value across a field
// boundary changes the sum.
func recordSetChecksum(calc checksum.Calculator, rs stagehand.RecordSet) string {
	var b strings.Builder
	for i, col := range rs.Columns {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(col.Name)
	}
	for _, row := range rs.Rows {
		b.WriteByte(0x1e)
		for i, v := range row {
			if i > 0 {
				b.WriteByte(0x1f)
			}
			b.WriteString(v)
		}
	}
	return calc.CalculateContent([]byte(b.String()))
}

// quoteIdentifier double-quotes a SQL identifier. Names arrive already
// normalized by the parser, so this guards against reserved words rather
// than injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Verify StagingLoader implements the interface at compile time
var _ stagehand.TabularLoader = (*StagingLoader)(nil)
