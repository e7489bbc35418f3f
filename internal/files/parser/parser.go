package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vvka-141/stagehand/internal/files/filesystem"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

// Parser converts delimited data files into record sets.
type Parser struct {
	fsProvider filesystem.FileSystemProvider
	delimiter  rune
}

// NewParser creates a parser using the given field delimiter and the OS
// filesystem. Panics if delimiter is zero.
func NewParser(delimiter rune) *Parser {
	return NewParserWithFS(delimiter, filesystem.NewOSFileSystem())
}

// NewParserWithFS creates a parser with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if delimiter is zero or fsProvider is nil.
func NewParserWithFS(delimiter rune, fsProvider filesystem.FileSystemProvider) *Parser {
	if delimiter == 0 {
		panic("delimiter cannot be zero")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Parser{
		fsProvider: fsProvider,
		delimiter:  delimiter,
	}
}

// Parse reads the candidate's data file and returns its tabular form with
// the derived staging table name.
//
// The first record is the header; every following record must have the same
// field count (enforced by the csv reader). A header-only file is valid and
// yields a zero-row RecordSet. Malformed input yields an error wrapping
// stagehand.ErrParse with the file path and 1-based row number.
func (p *Parser) Parse(candidate stagehand.CandidateFile) (stagehand.RecordSet, error) {
	content, err := p.fsProvider.ReadFile(candidate.DataPath)
	if err != nil {
		return stagehand.RecordSet{}, fmt.Errorf("%w: %s: %v", stagehand.ErrParse, candidate.DataPath, err)
	}

	if !utf8.Valid(content) {
		return stagehand.RecordSet{}, fmt.Errorf("%w: %s: content is not valid UTF-8", stagehand.ErrParse, candidate.DataPath)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = p.delimiter
	// FieldsPerRecord defaults to the first record's count, which makes the
	// reader reject rows with inconsistent column counts.

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stagehand.RecordSet{}, fmt.Errorf("%w: %s: file is empty, missing header", stagehand.ErrParse, candidate.DataPath)
		}
		return stagehand.RecordSet{}, parseError(candidate.DataPath, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stagehand.RecordSet{}, parseError(candidate.DataPath, err)
		}
		// Producers pad fields; trim here so type inference and the load
		// see identical values.
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}

	columns := make([]stagehand.Column, len(header))
	for i, name := range header {
		columns[i] = stagehand.Column{
			Name: NormalizeIdentifier(name),
			Type: inferColumnType(rows, i),
		}
	}

	return stagehand.RecordSet{
		Table:      TableNameForFile(candidate.DataPath),
		Columns:    columns,
		Rows:       rows,
		SourcePath: candidate.DataPath,
	}, nil
}

// parseError wraps a csv reader error, preserving its line position when the
// reader supplies one.
func parseError(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %s: row %d: %v", stagehand.ErrParse, path, pe.Line, pe.Err)
	}
	return fmt.Errorf("%w: %s: %v", stagehand.ErrParse, path, err)
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	dateSuffix = regexp.MustCompile(`_\d{8}$`)
)

// TableNameForFile derives the staging table name from a data file path:
// the file stem lowercased with every non-alphanumeric run replaced by a
// single underscore. A trailing _YYYYMMDD batch date stamped into the file
// name by producers is stripped first, so sales_20240101.csv and
// sales_20240102.csv load into the same table.
func TableNameForFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = dateSuffix.ReplaceAllString(stem, "")
	return NormalizeIdentifier(stem)
}

// NormalizeIdentifier lowercases s and replaces each run of non-alphanumeric
// characters with a single underscore, producing a safe SQL identifier.
// Leading digits get an underscore prefix.
func NormalizeIdentifier(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "_"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// Verify Parser implements the interface at compile time
var _ stagehand.TabularParser = (*Parser)(nil)
