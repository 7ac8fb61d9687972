package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var csvHeader = []string{"Section", "Title", "Detail", "Sprints/Hours", "Cost"}

// GenerateCSV writes the estimate as a flat table: one row per functional
// line, one per non-functional item and one per allocation, followed by the
// totals.
func GenerateCSV(data ExportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{csvHeader}
	for _, r := range data.FunctionalRows {
		records = append(records, []string{
			r.Section, r.Title, "", r.Quantity.StringFixed(2), RoundMoney(r.Cost).StringFixed(2),
		})
	}
	for _, r := range data.NonFunctionalRows {
		qty := ""
		if r.Level == 1 {
			qty = r.Quantity.StringFixed(2)
		}
		records = append(records, []string{
			r.Section, r.Title, r.Detail, qty, RoundMoney(r.Cost).StringFixed(2),
		})
	}

	totals := []struct {
		label string
		value string
	}{
		{"FunctionalSubtotal", data.FunctionalSubtotal.StringFixed(2)},
		{"NonFunctionalSubtotal", data.NonFunctionalSubtotal.StringFixed(2)},
		{"Subtotal", data.Subtotal.StringFixed(2)},
		{"Contingency", data.ContingencyAmount.StringFixed(2)},
		{"Total", data.Total.StringFixed(2)},
	}
	for _, t := range totals {
		records = append(records, []string{"Summary", t.label, "", "", t.value})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
