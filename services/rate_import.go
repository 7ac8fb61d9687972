package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RateImportResult is returned after parsing and validating an uploaded rate
// sheet. Rates holds only the rows that passed validation.
type RateImportResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	Rates     []ResourceRate    `json:"rates"`
	FileName  string            `json:"-"`
}

// rateSheetColumn is one recognised column of a rate sheet.
type rateSheetColumn struct {
	Key      string
	Label    string
	Required bool
}

var rateSheetColumns = []rateSheetColumn{
	{Key: "role", Label: "Role", Required: true},
	{Key: "type", Label: "Type", Required: true},
	{Key: "daily_rate", Label: "Daily Rate", Required: true},
	{Key: "hourly_rate", Label: "Hourly Rate"},
	{Key: "source_key", Label: "Source Key"},
	{Key: "legacy_number", Label: "Legacy Number"},
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return rows[0], rows[1:], nil
}

// mapHeadersToColumns maps uploaded column headers to column keys. Returns
// the key for each header ("" when unknown) and the unrecognised headers.
func mapHeadersToColumns(headers []string) ([]string, []string) {
	labelToKey := make(map[string]string, len(rateSheetColumns))
	for _, c := range rateSheetColumns {
		labelToKey[foldKey(c.Label)] = c.Key
		labelToKey[foldKey(c.Key)] = c.Key
	}

	mapped := make([]string, len(headers))
	var unrecognized []string

	for i, h := range headers {
		// Templates mark required columns with a trailing " *".
		norm := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h), " *"))
		if key, ok := labelToKey[foldKey(norm)]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

// ParseRateSheet parses and validates an uploaded .csv or .xlsx rate sheet.
// Rows with errors are reported and left out of the result's rates.
func ParseRateSheet(file io.Reader, fileName string) (*RateImportResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	columnKeys, _ := mapHeadersToColumns(headers)

	result := &RateImportResult{
		TotalRows: len(dataRows),
		FileName:  fileName,
	}

	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		rowData := make(map[string]string)
		for colIdx, key := range columnKeys {
			if key == "" || colIdx >= len(row) {
				continue
			}
			rowData[key] = strings.TrimSpace(row[colIdx])
		}

		rate, rowErrors := validateRateRow(rowNum, rowData)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorRows++
			continue
		}
		result.Rates = append(result.Rates, rate)
	}
	result.ValidRows = result.TotalRows - result.ErrorRows

	return result, nil
}

// validateRateRow converts one row into a rate, collecting every problem.
func validateRateRow(rowNum int, data map[string]string) (ResourceRate, []ValidationError) {
	var errs []ValidationError
	rate := ResourceRate{
		Role:       data["role"],
		SourceKey:  data["source_key"],
		DailyRate:  decimal.Zero,
		HourlyRate: decimal.Zero,
	}

	for _, c := range rateSheetColumns {
		if c.Required && data[c.Key] == "" {
			errs = append(errs, ValidationError{Row: rowNum, Field: c.Label, Message: fmt.Sprintf("%s is required", c.Label)})
		}
	}

	if v := data["type"]; v != "" {
		switch foldKey(v) {
		case foldKey(string(ResourceFTE)), "fulltime", "full time":
			rate.Type = ResourceFTE
		case foldKey(string(ResourceContractor)):
			rate.Type = ResourceContractor
		default:
			errs = append(errs, ValidationError{Row: rowNum, Field: "Type", Message: "Type must be FTE or Contractor"})
		}
	}

	if v := data["daily_rate"]; v != "" {
		d, err := parseRate(v)
		if err != nil {
			errs = append(errs, ValidationError{Row: rowNum, Field: "Daily Rate", Message: "Daily Rate must be a non-negative number"})
		} else {
			rate.DailyRate = d
		}
	}
	if v := data["hourly_rate"]; v != "" {
		d, err := parseRate(v)
		if err != nil {
			errs = append(errs, ValidationError{Row: rowNum, Field: "Hourly Rate", Message: "Hourly Rate must be a non-negative number"})
		} else {
			rate.HourlyRate = d
		}
	}
	if v := data["legacy_number"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, ValidationError{Row: rowNum, Field: "Legacy Number", Message: "Legacy Number must be a positive whole number"})
		} else {
			rate.LegacyNumber = n
		}
	}

	return rate, errs
}

func parseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative rate %s", s)
	}
	return d, nil
}

// GenerateRateTemplate creates an empty .xlsx rate sheet with the recognised
// headers, required ones marked with " *".
func GenerateRateTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Rates"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#005358"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, c := range rateSheetColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		label := c.Label
		if c.Required {
			label += " *"
		}
		f.SetCellValue(sheet, cell, label)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, colName, colName, 18)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write rate template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, e.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
