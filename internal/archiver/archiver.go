// Package archiver moves processed files out of the input directory so the
// next scan does not pick them up again.
package archiver

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/vvka-141/stagehand/internal/files/filesystem"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// Archiver relocates a candidate's data and marker files into an archive
// directory, preserving file names.
type Archiver struct {
	fsProvider filesystem.FileSystemProvider
}

// NewArchiver creates an archiver using the OS filesystem.
func NewArchiver() *Archiver {
	return NewArchiverWithFS(filesystem.NewOSFileSystem())
}

// NewArchiverWithFS creates an archiver with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if fsProvider is nil.
func NewArchiverWithFS(fsProvider filesystem.FileSystemProvider) *Archiver {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Archiver{fsProvider: fsProvider}
}

// Archive moves the candidate's data file and marker file into archiveDir,
// creating the directory if needed. The data file moves first; if the marker
// move then fails, the data file is moved back so a failed archive always
// leaves the pair in the input directory, eligible for a later run.
//
// Rename is tried first; when the archive directory is on another device the
// move falls back to a copy with fsync followed by removal of the source, so
// a crash mid-move leaves at worst the original plus a temp artifact.
func (a *Archiver) Archive(candidate stagehand.CandidateFile, archiveDir string) (stagehand.ArchiveRecord, error) {
	if err := a.fsProvider.MkdirAll(archiveDir); err != nil {
		return stagehand.ArchiveRecord{}, fmt.Errorf("%w: failed to create archive directory %s: %v",
			stagehand.ErrArchive, archiveDir, err)
	}

	dataDest := filepath.Join(archiveDir, filepath.Base(candidate.DataPath))
	if err := a.move(candidate.DataPath, dataDest); err != nil {
		return stagehand.ArchiveRecord{}, fmt.Errorf("%w: failed to archive %s: %v",
			stagehand.ErrArchive, candidate.DataPath, err)
	}

	markerDest := filepath.Join(archiveDir, filepath.Base(candidate.MarkerPath))
	if err := a.move(candidate.MarkerPath, markerDest); err != nil {
		// Put the data file back so the pair stays intact in the input
		// directory.
		if undoErr := a.move(dataDest, candidate.DataPath); undoErr != nil {
			return stagehand.ArchiveRecord{}, fmt.Errorf("%w: failed to archive marker %s: %v (data file stranded at %s: %v)",
				stagehand.ErrArchive, candidate.MarkerPath, err, dataDest, undoErr)
		}
		return stagehand.ArchiveRecord{}, fmt.Errorf("%w: failed to archive marker %s: %v",
			stagehand.ErrArchive, candidate.MarkerPath, err)
	}

	return stagehand.ArchiveRecord{
		OriginalPath: candidate.DataPath,
		ArchivedPath: dataDest,
		ArchivedAt:   time.Now(),
	}, nil
}

// move renames src to dest, falling back to copy-and-remove when rename
// fails (typically a cross-device link error).
func (a *Archiver) move(src, dest string) error {
	if err := a.fsProvider.Rename(src, dest); err == nil {
		return nil
	}

	if err := a.fsProvider.CopyFile(src, dest); err != nil {
		return err
	}
	return a.fsProvider.Remove(src)
}

// Verify Archiver implements the interface at compile time
var _ stagehand.Archiver = (*Archiver)(nil)
