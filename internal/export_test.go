package internal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleExportView() ExportView {
	return ExportView{
		Month:    "2025-01",
		Dataset:  DatasetExpenses,
		Category: "food",
		Sort:     DefaultSortState(),
		Rows: []Transaction{
			{ID: "t2", Date: mustDay("2025-01-12"), Merchant: "Kopi", Amount: decimal.RequireFromString("2.50"), Category: "food"},
			{ID: "t1", Date: mustDay("2025-01-10"), Merchant: "Hawker", Amount: decimal.RequireFromString("10.00"), Category: "food", Voided: true},
		},
		Matched:  2,
		Total:    decimal.RequireFromString("2.50"),
		Currency: "SGD",
	}
}

func TestIsKnownFormat(t *testing.T) {
	RegisterExporter("test-format", ExporterFunc(func(path string, v ExportView) error {
		return nil
	}))

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"registered format", "test-format", true},
		{"built-in json", "json", true},
		{"built-in xlsx", "xlsx", true},
		{"unknown format", "csv", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsKnownFormat(tt.input)
			if got != tt.expected {
				t.Errorf("IsKnownFormat(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseExportArg(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		expectedFormat string
		expectedPath   string
	}{
		{"explicit prefix", "xlsx:march.data", "xlsx", "march.data"},
		{"extension", "march.json", "json", "march.json"},
		{"extension upper case", "MARCH.XLSX", "xlsx", "MARCH.XLSX"},
		{"unknown extension", "march.csv", "", "march.csv"},
		{"windows path", "C:\\out\\march.xlsx", "xlsx", "C:\\out\\march.xlsx"},
		{"prefix with absolute path", "json:/tmp/out.txt", "json", "/tmp/out.txt"},
		{"unknown prefix treated as path", "foo:bar.json", "json", "foo:bar.json"},
		{"no extension", "report", "", "report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFormat, gotPath := ParseExportArg(tt.input)
			if gotFormat != tt.expectedFormat {
				t.Errorf("ParseExportArg(%q) format = %q, want %q", tt.input, gotFormat, tt.expectedFormat)
			}
			if gotPath != tt.expectedPath {
				t.Errorf("ParseExportArg(%q) path = %q, want %q", tt.input, gotPath, tt.expectedPath)
			}
		})
	}
}

func TestWriteExport_UnknownFormat(t *testing.T) {
	if _, err := WriteExport(filepath.Join(t.TempDir(), "out.csv"), sampleExportView()); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.json")
	if _, err := WriteExport(path, sampleExportView()); err != nil {
		t.Fatalf("WriteExport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got JSONExport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Month != "2025-01" || got.Category != "food" || got.Sort != "date desc" {
		t.Errorf("selection = %+v", got)
	}
	if len(got.Transactions) != 2 || got.Transactions[0].ID != "t2" {
		t.Fatalf("transactions = %+v", got.Transactions)
	}
	if !got.Transactions[1].Voided {
		t.Error("voided flag lost")
	}
	if !got.Summary.Total.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Summary.Total = %s, want 2.5", got.Summary.Total)
	}
}

func TestWriteCategoriesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCategoriesJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("empty list = %q, want []", got)
	}

	buf.Reset()
	defs := []CategoryDef{{Name: "food", Color: "#f97316", Builtin: true}, {Name: "bars", Color: "#6366f1"}}
	if err := WriteCategoriesJSON(&buf, defs); err != nil {
		t.Fatal(err)
	}
	var got []JSONCategory
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 || got[1].Name != "bars" || !got[0].Builtin {
		t.Errorf("categories = %+v", got)
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.xlsx")
	if _, err := WriteExport("xlsx:"+path, sampleExportView()); err != nil {
		t.Fatalf("WriteExport: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		t.Fatalf("reading sheet: %v", err)
	}
	// header + 2 rows + total
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0][0] != "Date" || rows[1][1] != "Kopi" || rows[2][1] != "Hawker" {
		t.Errorf("unexpected rows: %v", rows)
	}
	if rows[3][2] != "Total" {
		t.Errorf("total label = %q", rows[3][2])
	}

	meta, err := f.GetRows("View")
	if err != nil {
		t.Fatalf("reading view sheet: %v", err)
	}
	if meta[0][1] != "Jan 2025" {
		t.Errorf("month label = %q, want Jan 2025", meta[0][1])
	}
}
