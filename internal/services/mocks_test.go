package services

import (
	"context"

	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// mockScanner returns a fixed candidate list or error.
type mockScanner struct {
	candidates []stagehand.CandidateFile
	err        error
	calls      int
}

func (m *mockScanner) ListEligible(dir string) ([]stagehand.CandidateFile, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// mockParser maps data paths to record sets or errors.
type mockParser struct {
	results map[string]stagehand.RecordSet
	errs    map[string]error
}

func (m *mockParser) Parse(candidate stagehand.CandidateFile) (stagehand.RecordSet, error) {
	if err := m.errs[candidate.DataPath]; err != nil {
		return stagehand.RecordSet{}, err
	}
	return m.results[candidate.DataPath], nil
}

// mockLoader records load and archive-mark calls.
type mockLoader struct {
	results      map[string]stagehand.LoadResult
	errs         map[string]error
	loaded       []string
	batchIDs     []string
	markedPaths  []string
	markArchived error
}

func (m *mockLoader) Load(ctx context.Context, rs stagehand.RecordSet, batchID string) (stagehand.LoadResult, error) {
	if err := m.errs[rs.SourcePath]; err != nil {
		return stagehand.LoadResult{}, err
	}
	m.loaded = append(m.loaded, rs.SourcePath)
	m.batchIDs = append(m.batchIDs, batchID)
	if result, ok := m.results[rs.SourcePath]; ok {
		return result, nil
	}
	return stagehand.LoadResult{Table: rs.Table, RowsWritten: int64(len(rs.Rows))}, nil
}

func (m *mockLoader) MarkArchived(ctx context.Context, sourcePath string) error {
	m.markedPaths = append(m.markedPaths, sourcePath)
	return m.markArchived
}

// mockArchiver records archive calls and can fail per path.
type mockArchiver struct {
	errs     map[string]error
	archived []string
}

func (m *mockArchiver) Archive(candidate stagehand.CandidateFile, archiveDir string) (stagehand.ArchiveRecord, error) {
	if err := m.errs[candidate.DataPath]; err != nil {
		return stagehand.ArchiveRecord{}, err
	}
	m.archived = append(m.archived, candidate.DataPath)
	return stagehand.ArchiveRecord{
		OriginalPath: candidate.DataPath,
		ArchivedPath: archiveDir + "/" + candidate.DataPath,
	}, nil
}

// mockMigrator counts invocations.
type mockMigrator struct {
	outcome stagehand.MigrationOutcome
	err     error
	calls   int
}

func (m *mockMigrator) Migrate(ctx context.Context) (stagehand.MigrationOutcome, error) {
	m.calls++
	if m.err != nil {
		return stagehand.MigrationOutcome{}, m.err
	}
	return m.outcome, nil
}

// Compile-time interface checks for the mocks.
var (
	_ stagehand.FileEligibilityProvider = (*mockScanner)(nil)
	_ stagehand.TabularParser           = (*mockParser)(nil)
	_ stagehand.TabularLoader           = (*mockLoader)(nil)
	_ stagehand.Archiver                = (*mockArchiver)(nil)
	_ stagehand.BatchMigrator           = (*mockMigrator)(nil)
)
