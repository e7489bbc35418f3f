package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vvka-141/stagehand/internal/files/filesystem"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// Scanner discovers data files that are paired with a completion marker.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
	markerExt  string
}

// NewScanner creates a scanner that pairs *.csv files with markers carrying
// the given extension (e.g. ".complete"). Uses the OS filesystem.
// Panics if markerExt is empty.
func NewScanner(markerExt string) *Scanner {
	return NewScannerWithFS(markerExt, filesystem.NewOSFileSystem())
}

// NewScannerWithFS creates a scanner with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if markerExt is empty or fsProvider is nil.
func NewScannerWithFS(markerExt string, fsProvider filesystem.FileSystemProvider) *Scanner {
	if markerExt == "" {
		panic("markerExt cannot be empty")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{
		fsProvider: fsProvider,
		markerExt:  markerExt,
	}
}

// ListEligible returns the candidates in dir whose companion marker file is
// present, ordered lexicographically by data file name.
//
// A directory with no eligible pairs yields an empty slice and nil error.
// An unreadable directory yields an error wrapping stagehand.ErrAccess.
func (s *Scanner) ListEligible(dir string) ([]stagehand.CandidateFile, error) {
	entries, err := s.fsProvider.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", stagehand.ErrAccess, dir, err)
	}

	// Index marker names so pairing is a map lookup, not a second listing.
	// Keyed by stem plus lowercased extension: extensions match
	// case-insensitively, stems must match exactly.
	markers := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ext := filepath.Ext(name); strings.EqualFold(ext, s.markerExt) {
			markers[strings.TrimSuffix(name, ext)+strings.ToLower(s.markerExt)] = name
		}
	}

	now := time.Now()
	candidates := make([]stagehand.CandidateFile, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), stagehand.DefaultDataExtension) {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		markerName, ok := markers[stem+strings.ToLower(s.markerExt)]
		if !ok {
			// No marker: the producer has not finished writing this file.
			continue
		}

		candidates = append(candidates, stagehand.CandidateFile{
			DataPath:     filepath.Join(dir, name),
			MarkerPath:   filepath.Join(dir, markerName),
			DiscoveredAt: now,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DataPath < candidates[j].DataPath
	})

	return candidates, nil
}

// Verify Scanner implements the interface at compile time
var _ stagehand.FileEligibilityProvider = (*Scanner)(nil)
