package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// Pipeline orchestrates one ingestion batch: scan, then per file
// parse-load-archive, then a single migration trigger.
type Pipeline struct {
	scanner  stagehand.FileEligibilityProvider
	parser   stagehand.TabularParser
	loader   stagehand.TabularLoader
	archiver stagehand.Archiver
	migrator stagehand.BatchMigrator
	logger   stagehand.Logger
}

// NewPipeline creates a pipeline with all collaborators injected.
// Panics if any collaborator is nil.
func NewPipeline(
	scanner stagehand.FileEligibilityProvider,
	parser stagehand.TabularParser,
	loader stagehand.TabularLoader,
	archiver stagehand.Archiver,
	migrator stagehand.BatchMigrator,
	logger stagehand.Logger,
) *Pipeline {
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if parser == nil {
		panic("parser cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if archiver == nil {
		panic("archiver cannot be nil")
	}
	if migrator == nil {
		panic("migrator cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Pipeline{
		scanner:  scanner,
		parser:   parser,
		loader:   loader,
		archiver: archiver,
		migrator: migrator,
		logger:   logger,
	}
}

// Run executes one batch and returns its summary.
//
// Files process strictly in the order the scan returned them; one file's
// failure is recorded and the run moves to the next file. The migration
// trigger fires exactly once per run, after the file loop, regardless of how
// many files succeeded: earlier runs may have left staged rows behind, so an
// all-failed batch still gets its chance to drain staging.
//
// The returned error is non-nil only for setup failures (invalid config,
// unreadable input directory). Per-file and migration failures live in the
// summary.
func (p *Pipeline) Run(ctx context.Context, config stagehand.IngestConfig) (stagehand.BatchSummary, error) {
	summary := stagehand.BatchSummary{BatchID: uuid.New()}

	if err := config.Validate(); err != nil {
		return summary, err
	}

	archiveDir := config.ArchivePath
	if archiveDir == "" {
		archiveDir = filepath.Join(config.InputPath, stagehand.DefaultArchiveDirName)
	}

	p.logger.Info("Starting batch %s: scanning %s", summary.BatchID, config.InputPath)

	candidates, err := p.scanner.ListEligible(config.InputPath)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)
	p.logger.Info("Found %d eligible file(s)", len(candidates))

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("batch interrupted: %w", err)
		}

		if err := p.processFile(ctx, candidate, archiveDir, &summary); err != nil {
			summary.Failed++
			p.logger.Error("Failed to process %s: %v", candidate.DataPath, err)
		}
	}

	outcome, err := p.migrator.Migrate(ctx)
	if err != nil {
		summary.MigrationErr = err
		p.logger.Error("Migration failed: %v", err)
	} else {
		summary.Migration = &outcome
		p.logger.Info("Migration processed %d table(s), %d row(s)",
			outcome.TablesProcessed, outcome.RowsMigrated)
	}

	p.logSummary(summary)
	return summary, nil
}

// processFile runs one candidate through parse, load, and archive. The
// archive only runs after a successful or already-recorded load, so a file
// never leaves the input directory without its rows being in staging.
func (p *Pipeline) processFile(ctx context.Context, candidate stagehand.CandidateFile, archiveDir string, summary *stagehand.BatchSummary) error {
	rs, err := p.parser.Parse(candidate)
	if err != nil {
		return err
	}

	result, err := p.loader.Load(ctx, rs, summary.BatchID.String())
	if err != nil {
		return err
	}

	record, err := p.archiver.Archive(candidate, archiveDir)
	if err != nil {
		return err
	}

	if err := p.loader.MarkArchived(ctx, candidate.DataPath); err != nil {
		// The ledger flag is advisory; the file is already out of the input
		// directory, so the load is not at risk.
		p.logger.Error("Failed to mark %s archived in ledger: %v", candidate.DataPath, err)
	}

	if result.AlreadyLoaded {
		summary.Reprocessed++
		p.logger.Info("Re-archived %s (content already loaded)", record.OriginalPath)
	} else {
		summary.Loaded++
		summary.RowsWritten += result.RowsWritten
		p.logger.Info("Loaded %d row(s) from %s into %s and archived to %s",
			result.RowsWritten, record.OriginalPath, result.Table, record.ArchivedPath)
	}
	return nil
}

func (p *Pipeline) logSummary(summary stagehand.BatchSummary) {
	p.logger.Info("Batch %s complete: %d candidate(s), %d loaded, %d reprocessed, %d failed, %d row(s) written",
		summary.BatchID, summary.Candidates, summary.Loaded, summary.Reprocessed,
		summary.Failed, summary.RowsWritten)
}
