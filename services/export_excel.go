package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const ratesSheet = "Rates"

// GenerateExcel creates a workbook for an estimate: the priced lines on the
// first sheet and the team composition on a second sheet.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names are limited to 31 chars.
	sheetName := data.Title
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" || sheetName == ratesSheet {
		sheetName = "Estimate"
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	lastCol := columns[len(columns)-1]

	widths := []float64{6, 14, 40, 20, 14, 14, 16, 12}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	st, err := newEstimateStyles(f)
	if err != nil {
		return nil, err
	}

	// ── Header Rows (1-4) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", st.title)

	subtitles := []string{
		"Client: " + sanitizeExcelCell(data.Client),
		fmt.Sprintf("Version %d  #%s  Date: %s", data.Version, data.DocumentNumber(), data.CreatedDate),
		fmt.Sprintf("Sprint length: %d days  Squad rate: %s per sprint  Basis: %s",
			data.SprintLengthDays, FormatMoney(data.SquadCostPerSprint), data.Basis),
	}
	for i, s := range subtitles {
		r := fmt.Sprintf("%d", i+2)
		if err := f.MergeCell(sheetName, "A"+r, lastCol+r); err != nil {
			return nil, fmt.Errorf("merge subtitle: %w", err)
		}
		f.SetCellValue(sheetName, "A"+r, s)
		f.SetCellStyle(sheetName, "A"+r, lastCol+r, st.subtitle)
	}

	// ── Row 6: Column Headers ───────────────────────────────────────────

	headers := []string{"#", "Section", "Title", "Role", "Sprints/Hours", "Rate", "Cost", "Status"}
	for i, h := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s6", columns[i]), h)
	}
	f.SetCellStyle(sheetName, "A6", lastCol+"6", st.header)

	// ── Data Rows (starting row 7) ──────────────────────────────────────

	row := 7
	rows := append(append([]ExportRow{}, data.FunctionalRows...), data.NonFunctionalRows...)
	for _, r := range rows {
		rowStr := fmt.Sprintf("%d", row)

		title := r.Title
		if r.Level == 1 {
			title = "  " + title
		}
		f.SetCellValue(sheetName, "A"+rowStr, r.Index)
		f.SetCellValue(sheetName, "B"+rowStr, r.Section)
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(title))
		f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.Detail))
		if r.Section == SectionFunctional || r.Level == 1 {
			f.SetCellValue(sheetName, "E"+rowStr, r.Quantity.InexactFloat64())
		}
		if r.Level == 1 {
			f.SetCellValue(sheetName, "F"+rowStr, r.Rate.InexactFloat64())
		}
		f.SetCellValue(sheetName, "G"+rowStr, r.Cost.InexactFloat64())
		if r.Section == SectionFunctional {
			status := "Approved"
			if r.Flagged {
				status = "Review"
			}
			f.SetCellValue(sheetName, "H"+rowStr, status)
		}

		style, moneyStyle := st.item, st.itemMoney
		if r.Level == 1 {
			style, moneyStyle = st.detail, st.detailMoney
		}
		f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, style)
		f.SetCellStyle(sheetName, "F"+rowStr, "G"+rowStr, moneyStyle)
		if r.Flagged {
			f.SetCellStyle(sheetName, "H"+rowStr, "H"+rowStr, st.flag)
		}
		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++
	summary := []struct {
		label string
		value float64
	}{
		{"Functional Work:", data.FunctionalSubtotal.InexactFloat64()},
		{"Non-Functional:", data.NonFunctionalSubtotal.InexactFloat64()},
		{fmt.Sprintf("Contingency (%s):", FormatPercent(data.ContingencyPercent)), data.ContingencyAmount.InexactFloat64()},
		{"Total Estimate:", data.Total.InexactFloat64()},
	}
	for _, s := range summary {
		summaryRow := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "F"+summaryRow, s.label)
		f.SetCellStyle(sheetName, "F"+summaryRow, "F"+summaryRow, st.summaryLabel)
		f.SetCellValue(sheetName, "G"+summaryRow, s.value)
		f.SetCellStyle(sheetName, "G"+summaryRow, "G"+summaryRow, st.summaryValue)
		row++
	}

	if data.HasDeviations {
		row++
		warnRow := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+warnRow, "WARNING: Some requirements deviate significantly from their pattern average. Review recommended.")
		f.SetCellStyle(sheetName, "A"+warnRow, "A"+warnRow, st.flag)
	}

	if err := writeRatesSheet(f, data, st); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// writeRatesSheet lists the estimate's resource rates.
func writeRatesSheet(f *excelize.File, data ExportData, st estimateStyles) error {
	if _, err := f.NewSheet(ratesSheet); err != nil {
		return fmt.Errorf("create rates sheet: %w", err)
	}
	for i, w := range []float64{30, 14, 14, 14} {
		col := string(rune('A' + i))
		if err := f.SetColWidth(ratesSheet, col, col, w); err != nil {
			return fmt.Errorf("set rates col width %s: %w", col, err)
		}
	}
	for i, h := range []string{"Role", "Type", "Daily Rate", "Hourly Rate"} {
		f.SetCellValue(ratesSheet, fmt.Sprintf("%c1", 'A'+i), h)
	}
	f.SetCellStyle(ratesSheet, "A1", "D1", st.header)

	row := 2
	for _, r := range data.Rates {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(ratesSheet, "A"+rowStr, sanitizeExcelCell(r.Role))
		f.SetCellValue(ratesSheet, "B"+rowStr, string(r.Type))
		f.SetCellValue(ratesSheet, "C"+rowStr, r.DailyRate.InexactFloat64())
		f.SetCellValue(ratesSheet, "D"+rowStr, r.HourlyRate.InexactFloat64())
		f.SetCellStyle(ratesSheet, "A"+rowStr, "B"+rowStr, st.detail)
		f.SetCellStyle(ratesSheet, "C"+rowStr, "D"+rowStr, st.detailMoney)
		row++
	}

	rowStr := fmt.Sprintf("%d", row+1)
	f.SetCellValue(ratesSheet, "A"+rowStr, fmt.Sprintf("Total team size: %d (FTE: %d, Contractors: %d)",
		len(data.Rates), data.FTECount(), data.ContractorCount()))
	f.SetCellStyle(ratesSheet, "A"+rowStr, "A"+rowStr, st.summaryLabel)
	return nil
}

type estimateStyles struct {
	title, subtitle, header              int
	item, itemMoney, detail, detailMoney int
	summaryLabel, summaryValue, flag     int
}

func newEstimateStyles(f *excelize.File) (estimateStyles, error) {
	var st estimateStyles
	moneyFmt := "#,##0.00"

	defs := []struct {
		name  string
		dst   *int
		style *excelize.Style
	}{
		{"title", &st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: "#005358"}}},
		{"subtitle", &st.subtitle, &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{"header", &st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#005358"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{"item", &st.item, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders()}},
		{"item money", &st.itemMoney, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders(), CustomNumFmt: &moneyFmt}},
		{"detail", &st.detail, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{"detail money", &st.detailMoney, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &moneyFmt}},
		{"summary label", &st.summaryLabel, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{"summary value", &st.summaryValue, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, CustomNumFmt: &moneyFmt}},
		{"flag", &st.flag, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10, Color: "#C25400"}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return st, nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
