package internal

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Transactions"

var xlsxHeader = []any{"Date", "Description", "Category", "Amount", "Type", "Bank", "Voided"}

// ExportXLSX writes the view to an Excel workbook: one row per transaction, a
// total row, and the selection on a second sheet
func ExportXLSX(path string, v ExportView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	if err := f.SetSheetRow(xlsxSheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, t := range v.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.Date.String(),
			t.Merchant,
			CategoryLabel(t),
			t.Amount.InexactFloat64(),
			t.TxnType,
			t.Bank,
			t.Voided,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	last := len(v.Rows) + 1
	totalRow := last + 1
	totalLabel, _ := excelize.CoordinatesToCellName(3, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(4, totalRow)
	if err := f.SetCellValue(xlsxSheet, totalLabel, "Total"); err != nil {
		return fmt.Errorf("writing total: %w", err)
	}
	if err := f.SetCellValue(xlsxSheet, totalCell, v.Total.InexactFloat64()); err != nil {
		return fmt.Errorf("writing total: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, totalLabel, totalCell, bold); err != nil {
		return fmt.Errorf("styling total: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "D2", totalCell, money); err != nil {
		return fmt.Errorf("styling amounts: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "B", "B", 32); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if _, err := f.NewSheet("View"); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	meta := [][]any{
		{"Month", v.Month.Label()},
		{"Dataset", string(v.Dataset)},
		{"Category", v.Category},
		{"Search", v.Search},
		{"Sort", fmt.Sprintf("%s %s", v.Sort.Column, v.Sort.Dir)},
		{"Matched", v.Matched},
		{"Currency", v.Currency},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("View", cell, &row); err != nil {
			return fmt.Errorf("writing view sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func init() {
	RegisterExporter("xlsx", ExporterFunc(ExportXLSX))
}
