package internal

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExportView is the transaction view being written out: the rows as displayed
// plus the selection that produced them
type ExportView struct {
	Month     Month
	Dataset   Dataset
	Category  string
	Search    string
	Sort      SortState
	Rows      []Transaction
	Matched   int
	Total     decimal.Decimal
	Currency  string
	Generated time.Time
}

// NewExportView captures the current view of an AppState
func NewExportView(s *AppState, currencyCode string, now time.Time) ExportView {
	res := s.View()
	return ExportView{
		Month:     s.Month,
		Dataset:   s.Dataset,
		Category:  s.Query.Category,
		Search:    s.Query.Search,
		Sort:      s.Query.Sort,
		Rows:      res.Rows,
		Matched:   res.Matched,
		Total:     res.Total,
		Currency:  currencyCode,
		Generated: now,
	}
}

// Exporter writes a transaction view to a file
type Exporter interface {
	Export(path string, v ExportView) error
}

// ExporterFunc is a function that implements Exporter
type ExporterFunc func(path string, v ExportView) error

func (f ExporterFunc) Export(path string, v ExportView) error {
	return f(path, v)
}

// exporters is the registry of available export formats
var exporters = map[string]Exporter{}

// RegisterExporter registers an exporter under a format name
func RegisterExporter(name string, e Exporter) {
	exporters[name] = e
}

// GetExporter returns the exporter for the given format
func GetExporter(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format: %s (available: %v)", format, AvailableFormats())
	}
	return e, nil
}

// AvailableFormats returns the registered format names, sorted
func AvailableFormats() []string {
	var formats []string
	for name := range exporters {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// IsKnownFormat returns true if the name is a registered export format
func IsKnownFormat(name string) bool {
	_, ok := exporters[name]
	return ok
}

// ParseExportArg splits an --export argument into format and path.
// Without a known prefix the format is guessed from the file extension.
// Example: "xlsx:march.xlsx" → ("xlsx", "march.xlsx")
// Example: "march.json" → ("json", "march.json")
// Example: "C:\out\march.xlsx" → ("xlsx", "C:\out\march.xlsx") // Windows path
func ParseExportArg(arg string) (format, path string) {
	if idx := strings.Index(arg, ":"); idx != -1 {
		prefix := arg[:idx]
		if IsKnownFormat(prefix) {
			return prefix, arg[idx+1:]
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(arg)), ".")
	if IsKnownFormat(ext) {
		return ext, arg
	}
	return "", arg
}

// WriteExport resolves the format of an --export argument and writes the view
func WriteExport(arg string, v ExportView) (string, error) {
	format, path := ParseExportArg(arg)
	if format == "" {
		return "", fmt.Errorf("cannot tell export format of %q (available: %v)", arg, AvailableFormats())
	}
	e, err := GetExporter(format)
	if err != nil {
		return "", err
	}
	if err := e.Export(path, v); err != nil {
		return "", fmt.Errorf("exporting %s: %w", format, err)
	}
	return path, nil
}
