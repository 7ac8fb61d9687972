package services

import (
	"bytes"
	"encoding/csv"
	"testing"
)

func TestGenerateCSV(t *testing.T) {
	out, err := GenerateCSV(sampleExportData(t))
	if err != nil {
		t.Fatalf("GenerateCSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	// header + 2 functional + 3 non-functional + 5 summary
	if len(records) != 11 {
		t.Fatalf("expected 11 records, got %d: %v", len(records), records)
	}
	if got := records[0]; got[0] != "Section" || got[3] != "Sprints/Hours" || got[4] != "Cost" {
		t.Errorf("unexpected header %v", got)
	}
	if got := records[1]; got[1] != "Login" || got[3] != "2.00" || got[4] != "50000.00" {
		t.Errorf("unexpected functional row %v", got)
	}
	if got := records[4]; got[2] != "Tester" || got[3] != "10.00" || got[4] != "700.00" {
		t.Errorf("unexpected allocation row %v", got)
	}
	if got := records[10]; got[0] != "Summary" || got[1] != "Total" || got[4] != "69520.00" {
		t.Errorf("unexpected total row %v", got)
	}
}
