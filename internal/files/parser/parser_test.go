package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/vvka-141/stagehand/internal/files/filesystem"
	"github.com/vvka-141/stagehand/pkg/stagehand"
)

func candidate(path string) stagehand.CandidateFile {
	return stagehand.CandidateFile{
		DataPath:   path,
		MarkerPath: strings.TrimSuffix(path, ".csv") + ".complete",
	}
}

func TestParse_BasicFile(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/eu_sales_20240101.csv", "Order ID|Amount|Shipped\n1|10.50|true\n2|20.00|false\n")

	p := NewParserWithFS('|', mfs)
	rs, err := p.Parse(candidate("/in/eu_sales_20240101.csv"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if rs.Table != "eu_sales" {
		t.Errorf("Table = %s, want eu_sales", rs.Table)
	}
	if rs.SourcePath != "/in/eu_sales_20240101.csv" {
		t.Errorf("SourcePath = %s", rs.SourcePath)
	}
	if len(rs.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(rs.Columns))
	}

	wantCols := []stagehand.Column{
		{Name: "order_id", Type: stagehand.ColumnBigint},
		{Name: "amount", Type: stagehand.ColumnNumeric},
		{Name: "shipped", Type: stagehand.ColumnBoolean},
	}
	for i, want := range wantCols {
		if rs.Columns[i] != want {
			t.Errorf("Columns[%d] = %+v, want %+v", i, rs.Columns[i], want)
		}
	}

	if len(rs.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rs.Rows))
	}
	if rs.Rows[0][0] != "1" || rs.Rows[1][2] != "false" {
		t.Errorf("unexpected row content: %v", rs.Rows)
	}
}

func TestParse_TrimsPaddedFields(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/padded.csv", "id|amount|note\n 1 | 10.50 |  hello \n2|\t20.00\t|   \n")

	p := NewParserWithFS('|', mfs)
	rs, err := p.Parse(candidate("/in/padded.csv"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// Padded values infer their typed columns and carry trimmed values, so
	// the load writes exactly what inference saw.
	wantCols := []stagehand.Column{
		{Name: "id", Type: stagehand.ColumnBigint},
		{Name: "amount", Type: stagehand.ColumnNumeric},
		{Name: "note", Type: stagehand.ColumnText},
	}
	for i, want := range wantCols {
		if rs.Columns[i] != want {
			t.Errorf("Columns[%d] = %+v, want %+v", i, rs.Columns[i], want)
		}
	}

	wantRows := [][]string{
		{"1", "10.50", "hello"},
		{"2", "20.00", ""},
	}
	for i, want := range wantRows {
		for j, w := range want {
			if rs.Rows[i][j] != w {
				t.Errorf("Rows[%d][%d] = %q, want %q", i, j, rs.Rows[i][j], w)
			}
		}
	}
}

func TestParse_HeaderOnlyFile(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/empty.csv", "id|name\n")

	p := NewParserWithFS('|', mfs)
	rs, err := p.Parse(candidate("/in/empty.csv"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(rs.Columns) != 2 {
		t.Errorf("got %d columns, want 2", len(rs.Columns))
	}
	if len(rs.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rs.Rows))
	}
	// No values to infer from: columns degrade to text.
	for _, col := range rs.Columns {
		if col.Type != stagehand.ColumnText {
			t.Errorf("column %s type = %s, want text", col.Name, col.Type)
		}
	}
}

func TestParse_EmptyFile(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/zero.csv", "")

	p := NewParserWithFS('|', mfs)
	_, err := p.Parse(candidate("/in/zero.csv"))
	if !errors.Is(err, stagehand.ErrParse) {
		t.Errorf("Parse() error = %v, want ErrParse", err)
	}
}

func TestParse_RaggedRow(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/ragged.csv", "a|b|c\n1|2|3\n4|5\n")

	p := NewParserWithFS('|', mfs)
	_, err := p.Parse(candidate("/in/ragged.csv"))
	if !errors.Is(err, stagehand.ErrParse) {
		t.Fatalf("Parse() error = %v, want ErrParse", err)
	}
	// Row context: the bad row is line 3 of the file.
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error missing row position: %v", err)
	}
	if !strings.Contains(err.Error(), "/in/ragged.csv") {
		t.Errorf("error missing file path: %v", err)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/binary.csv", "id|name\n1|\xff\xfe\n")

	p := NewParserWithFS('|', mfs)
	_, err := p.Parse(candidate("/in/binary.csv"))
	if !errors.Is(err, stagehand.ErrParse) {
		t.Errorf("Parse() error = %v, want ErrParse", err)
	}
}

func TestParse_MissingFile(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")

	p := NewParserWithFS('|', mfs)
	_, err := p.Parse(candidate("/in/gone.csv"))
	if !errors.Is(err, stagehand.ErrParse) {
		t.Errorf("Parse() error = %v, want ErrParse", err)
	}
}

func TestParse_CustomDelimiter(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/semi.csv", "id;name\n1;alice\n")

	p := NewParserWithFS(';', mfs)
	rs, err := p.Parse(candidate("/in/semi.csv"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rs.Columns[1].Name != "name" || rs.Rows[0][1] != "alice" {
		t.Errorf("unexpected parse result: %+v", rs)
	}
}

func TestParse_EmptyValuesStayEmpty(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/in")
	mfs.AddFile("/in/gaps.csv", "id|note\n1|\n2|hello\n")

	p := NewParserWithFS('|', mfs)
	rs, err := p.Parse(candidate("/in/gaps.csv"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rs.Rows[0][1] != "" {
		t.Errorf("empty field = %q, want empty string", rs.Rows[0][1])
	}
}

func TestTableNameForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/in/sales.csv", "sales"},
		{"/in/Sales_20240101.csv", "sales"},
		{"/in/eu_orders_20231231.csv", "eu_orders"},
		{"/in/Región-Ventas.csv", "regi_n_ventas"},
		{"/in/2024_report.csv", "_2024_report"},
		{"/in/UPPER CASE.csv", "upper_case"},
		{"/in/sales_2024.csv", "sales_2024"}, // not an 8-digit date stamp
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := TableNameForFile(tt.path); got != tt.want {
				t.Errorf("TableNameForFile(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Order ID", "order_id"},
		{"amount", "amount"},
		{"Net--Price!!", "net_price"},
		{"  padded  ", "padded"},
		{"123abc", "_123abc"},
		{"___", "_"},
		{"", "_"},
	}

	for _, tt := range tests {
		if got := NormalizeIdentifier(tt.in); got != tt.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewParserWithFS_PanicsOnInvalidArgs(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero delimiter")
		}
	}()
	NewParserWithFS(0, filesystem.NewMemoryFileSystem("/in"))
}
