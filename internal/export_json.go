package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// JSONExport is the document written by the json exporter and by --output json.
// Example:
//
//	{
//	  "month": "2025-01",
//	  "dataset": "expenses",
//	  "category": "food",
//	  "transactions": [
//	    {"id": "t1", "date": "2025-01-15", "merchant": "Hawker", "amount": "12.5", "category": "food"}
//	  ],
//	  "summary": {"shown": 1, "matched": 1, "total": "12.5", "currency": "SGD"}
//	}
type JSONExport struct {
	Month        string            `json:"month,omitempty"`
	Dataset      string            `json:"dataset"`
	Category     string            `json:"category"`
	Search       string            `json:"search,omitempty"`
	Sort         string            `json:"sort"`
	Transactions []JSONTransaction `json:"transactions"`
	Summary      JSONSummary       `json:"summary"`
	Generated    string            `json:"generated,omitempty"`
}

type JSONTransaction struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"` // YYYY-MM-DD format
	TxnType  string          `json:"txn_type,omitempty"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Bank     string          `json:"bank,omitempty"`
	Voided   bool            `json:"voided,omitempty"`
}

// JSONSummary contains aggregate statistics
type JSONSummary struct {
	Shown    int             `json:"shown"`
	Matched  int             `json:"matched"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency,omitempty"`
}

func newJSONExport(v ExportView) JSONExport {
	txs := make([]JSONTransaction, 0, len(v.Rows))
	for _, t := range v.Rows {
		txs = append(txs, JSONTransaction{
			ID:       t.ID,
			Date:     t.Date.String(),
			TxnType:  t.TxnType,
			Merchant: t.Merchant,
			Amount:   t.Amount,
			Category: CategoryLabel(t),
			Bank:     t.Bank,
			Voided:   t.Voided,
		})
	}
	out := JSONExport{
		Month:        string(v.Month),
		Dataset:      string(v.Dataset),
		Category:     v.Category,
		Search:       v.Search,
		Sort:         fmt.Sprintf("%s %s", v.Sort.Column, v.Sort.Dir),
		Transactions: txs,
		Summary: JSONSummary{
			Shown:    len(txs),
			Matched:  v.Matched,
			Total:    v.Total,
			Currency: v.Currency,
		},
	}
	if !v.Generated.IsZero() {
		out.Generated = v.Generated.UTC().Format(time.RFC3339)
	}
	return out
}

// WriteViewJSON writes the view as indented JSON
func WriteViewJSON(w io.Writer, v ExportView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newJSONExport(v)); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// JSONCategory is a category definition as printed by the categories view
type JSONCategory struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Builtin bool   `json:"builtin"`
}

func WriteCategoriesJSON(w io.Writer, defs []CategoryDef) error {
	out := make([]JSONCategory, 0, len(defs))
	for _, d := range defs {
		out = append(out, JSONCategory{Name: d.Name, Color: d.Color, Builtin: d.Builtin})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ExportJSON writes the view to a JSON file
func ExportJSON(path string, v ExportView) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := WriteViewJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	RegisterExporter("json", ExporterFunc(ExportJSON))
}
