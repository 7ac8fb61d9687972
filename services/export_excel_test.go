package services

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestGenerateExcel_Estimate(t *testing.T) {
	data := sampleExportData(t)

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateExcel() returned empty bytes")
	}

	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Portal Rebuild" || sheets[1] != "Rates" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	title, _ := f.GetCellValue(sheets[0], "A1")
	if title != "Portal Rebuild" {
		t.Errorf("expected title 'Portal Rebuild', got %q", title)
	}

	header, _ := f.GetCellValue(sheets[0], "E6")
	if header != "Sprints/Hours" {
		t.Errorf("E6 = %q, want 'Sprints/Hours'", header)
	}

	first, _ := f.GetCellValue(sheets[0], "C7")
	status, _ := f.GetCellValue(sheets[0], "H7")
	if first != "Login" || status != "Review" {
		t.Errorf("row 7 = %q / %q, want Login / Review", first, status)
	}

	role, _ := f.GetCellValue("Rates", "A2")
	if role != "Developer" {
		t.Errorf("Rates!A2 = %q, want Developer", role)
	}
}

func TestGenerateExcel_EmptyEstimate(t *testing.T) {
	e := NewEstimate("", "")
	data := BuildExportData(e, CalcEstimateTotals(e, BasisSquadRate))

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}
	if _, err := excelize.OpenReader(bytes.NewReader(result)); err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
}

func TestGenerateExcel_LongTitleTruncated(t *testing.T) {
	data := ExportData{Title: "An estimate title well beyond thirty-one characters"}
	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()
	if name := f.GetSheetList()[0]; len(name) != 31 {
		t.Errorf("sheet name %q has %d chars, want 31", name, len(name))
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Login", "Login"},
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-cmd", "'-cmd"},
		{"@x", "'@x"},
	}
	for _, tt := range tests {
		if got := sanitizeExcelCell(tt.in); got != tt.want {
			t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
