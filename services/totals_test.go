package services

import "testing"

// sampleEstimate has a squad rate of 25,000 per sprint, one pattern line,
// one custom line and one non-functional item.
func sampleEstimate() *Estimate {
	e := NewEstimate("Portal Rebuild", "Acme")
	e.Reference = "3f2a9c1e-7b44-4c1d-9a0b-5e6f7a8b9c0d"
	e.ContingencyPercent = dec("10")
	e.ResourceRates = []ResourceRate{
		{Role: "Developer", Type: ResourceFTE, DailyRate: dec("1000"), SourceKey: "team-a-FTE-1"},
		{Role: "Developer", Type: ResourceFTE, DailyRate: dec("1000"), SourceKey: "team-a-FTE-2"},
		{Role: "Tester", Type: ResourceContractor, DailyRate: dec("500"), HourlyRate: dec("70"), SourceKey: "team-b-CTR-3"},
	}
	e.RoleMappings = []RoleMapping{{SourceRole: "QA", TargetRole: "Tester"}}
	e.FunctionalItems = []*FunctionalLineItem{
		{
			Title:               "Login",
			SourceType:          SourceCommonPattern,
			PatternKey:          "auth",
			AverageSprints:      decPtr("1"),
			Sprints:             dec("2"),
			AssignedResourceIDs: "team-a-FTE-1:100,team-b-CTR-3:50",
		},
		{Title: "Reports", SourceType: SourceCustom, Sprints: dec("0.5")},
	}
	e.NonFunctionalItems = []*NonFunctionalItem{
		{
			Title: "Testing",
			Allocations: []ResourceAllocation{
				{Role: "QA", Hours: dec("10")},
				{Role: "Designer", Hours: dec("40")},
			},
		},
	}
	return e
}

func TestCalcEstimateTotals_SquadBasis(t *testing.T) {
	e := sampleEstimate()
	got := CalcEstimateTotals(e, BasisSquadRate)

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"SquadCostPerSprint", got.SquadCostPerSprint.String(), "25000"},
		{"FunctionalLines[0]", got.FunctionalLines[0].Cost.String(), "50000"},
		{"FunctionalLines[1]", got.FunctionalLines[1].Cost.String(), "12500"},
		{"FunctionalSubtotal", got.FunctionalSubtotal.String(), "62500"},
		{"NonFunctionalSubtotal", got.NonFunctionalSubtotal.String(), "700"},
		{"Subtotal", got.Subtotal.String(), "63200"},
		{"Total", got.Total.String(), "69520"},
		{"ContingencyAmount", got.ContingencyAmount.String(), "6320"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestCalcEstimateTotals_AssignmentBasis(t *testing.T) {
	e := sampleEstimate()
	got := CalcEstimateTotals(e, BasisAssignment)

	// Login: 20 days x (1000 x 100% + 500 x 50%); Reports has no assignments.
	if !got.FunctionalLines[0].Cost.Equal(dec("25000")) {
		t.Errorf("FunctionalLines[0] = %s, want 25000", got.FunctionalLines[0].Cost)
	}
	if !got.FunctionalLines[1].Cost.IsZero() {
		t.Errorf("FunctionalLines[1] = %s, want 0", got.FunctionalLines[1].Cost)
	}
	if !got.Total.Equal(dec("28270")) {
		t.Errorf("Total = %s, want 28270", got.Total)
	}
}

func TestCalcEstimateTotals_Nil(t *testing.T) {
	got := CalcEstimateTotals(nil, BasisSquadRate)
	if !got.Total.IsZero() || len(got.FunctionalLines) != 0 {
		t.Errorf("CalcEstimateTotals(nil) = %+v", got)
	}
}

func TestParseCostBasis(t *testing.T) {
	tests := []struct {
		in      string
		want    CostBasis
		wantErr bool
	}{
		{"", BasisSquadRate, false},
		{"squad", BasisSquadRate, false},
		{" Assignment ", BasisAssignment, false},
		{"hourly", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCostBasis(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCostBasis(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCostBasis(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRefreshDeviationFlags(t *testing.T) {
	e := sampleEstimate()
	e.FunctionalItems[1].IsDeviationFlagged = true // stale flag on a custom line

	flagged := RefreshDeviationFlags(e, DefaultDeviationThreshold)
	if flagged != 1 {
		t.Errorf("RefreshDeviationFlags() = %d, want 1", flagged)
	}
	if !e.FunctionalItems[0].IsDeviationFlagged {
		t.Error("Login should be flagged: 2 sprints against an average of 1")
	}
	if e.FunctionalItems[1].IsDeviationFlagged {
		t.Error("custom line without a baseline must not be flagged")
	}
	if !e.HasDeviations() {
		t.Error("HasDeviations() = false, want true")
	}
}

func TestApplyTotals(t *testing.T) {
	e := sampleEstimate()
	totals := CalcEstimateTotals(e, BasisSquadRate)
	ApplyTotals(e, totals)
	if !e.Subtotal.Equal(totals.Subtotal) || !e.Total.Equal(totals.Total) {
		t.Errorf("ApplyTotals() left subtotal/total at %s/%s", e.Subtotal, e.Total)
	}
	if !e.FunctionalSubtotal.Equal(dec("62500")) || !e.NonFunctionalSubtotal.Equal(dec("700")) {
		t.Errorf("ApplyTotals() subtotals = %s/%s", e.FunctionalSubtotal, e.NonFunctionalSubtotal)
	}
}
