package output

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXPath(t *testing.T) {
	if got := XLSXPath("out/leads_cafes.csv"); got != "out/leads_cafes.xlsx" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")

	if err := ExportXLSX(path, sampleLeads()); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][2] != "website_type" || rows[1][0] != "Jane's Cafe" || rows[2][2] != "none" {
		t.Fatalf("unexpected content: %v", rows)
	}
}
