package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalcSquadCostPerSprint(t *testing.T) {
	tests := []struct {
		name string
		comp SquadComposition
		want string
	}{
		{
			name: "mixed squad",
			comp: SquadComposition{FteCount: 2, FteDailyRate: dec("1000"), ContractorCount: 1, ContractorDailyRate: dec("500"), SprintLengthDays: 10},
			want: "25000",
		},
		{
			name: "empty squad",
			comp: SquadComposition{SprintLengthDays: 10},
			want: "0",
		},
		{
			name: "fractional rate rounds",
			comp: SquadComposition{FteCount: 3, FteDailyRate: dec("333.3333"), SprintLengthDays: 1},
			want: "1000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalcSquadCostPerSprint(tt.comp)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("CalcSquadCostPerSprint() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildSquadComposition(t *testing.T) {
	rates := []ResourceRate{
		{Role: "Dev", Type: ResourceFTE, DailyRate: dec("1000")},
		{Role: "Dev", Type: ResourceFTE, DailyRate: dec("800")},
		{Role: "QA", Type: ResourceContractor, DailyRate: dec("500")},
	}
	got := BuildSquadComposition(rates, 10)
	if got.FteCount != 2 || got.ContractorCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", got.FteCount, got.ContractorCount)
	}
	if !got.FteDailyRate.Equal(dec("900")) {
		t.Errorf("FteDailyRate = %s, want 900", got.FteDailyRate)
	}
	if !got.ContractorDailyRate.Equal(dec("500")) {
		t.Errorf("ContractorDailyRate = %s, want 500", got.ContractorDailyRate)
	}
	if cost := CalcSquadCostPerSprint(got); !cost.Equal(dec("23000")) {
		t.Errorf("CalcSquadCostPerSprint() = %s, want 23000", cost)
	}

	empty := BuildSquadComposition(nil, 10)
	if !empty.FteDailyRate.IsZero() || !empty.ContractorDailyRate.IsZero() {
		t.Errorf("empty composition rates = %s/%s, want 0/0", empty.FteDailyRate, empty.ContractorDailyRate)
	}
}

func TestCalcFunctionalLineCost(t *testing.T) {
	got := CalcFunctionalLineCost(dec("1.5"), dec("25000"))
	if !got.Equal(dec("37500")) {
		t.Errorf("CalcFunctionalLineCost() = %s, want 37500", got)
	}
}

func assignmentEstimate() *Estimate {
	e := NewEstimate("Assigned", "Acme")
	e.SprintLengthDays = 10
	e.ResourceRates = []ResourceRate{
		{Role: "Developer", Type: ResourceFTE, DailyRate: dec("1000"), SourceKey: "team-a-FTE-1"},
		{Role: "Tester", Type: ResourceContractor, DailyRate: dec("500"), SourceKey: "team-b-CTR-2"},
	}
	return e
}

func TestCalcFunctionalLineCostByAssignment(t *testing.T) {
	tests := []struct {
		name     string
		sprints  string
		assigned string
		want     string
	}{
		{"two resources", "0.3", "team-a-FTE-1:100,team-b-CTR-2:50", "3750"},
		{"case-insensitive keys", "0.3", "TEAM-A-fte-1:100", "3000"},
		{"unknown key contributes nothing", "0.3", "team-z-FTE-9:100,team-b-CTR-2:100", "1500"},
		{"no assignments", "2", "", "0"},
		{"utilization clamped", "0.1", "team-a-FTE-1:150", "1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := assignmentEstimate()
			line := &FunctionalLineItem{Sprints: dec(tt.sprints), AssignedResourceIDs: tt.assigned}
			got := CalcFunctionalLineCostByAssignment(line, e)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("CalcFunctionalLineCostByAssignment() = %s, want %s", got, tt.want)
			}
		})
	}

	if got := CalcFunctionalLineCostByAssignment(nil, assignmentEstimate()); !got.IsZero() {
		t.Errorf("nil line cost = %s, want 0", got)
	}
}

func TestCalcNonFunctionalCost(t *testing.T) {
	rates := []ResourceRate{
		{Role: "Developer", DailyRate: dec("800"), HourlyRate: dec("120")},
		{Role: "Tester", DailyRate: dec("400")},
	}
	mappings := []RoleMapping{
		{SourceRole: "Engineer", TargetRole: "developer"},
		{SourceRole: "Designer", TargetRole: "Unpriced Role"},
		{SourceRole: "Ops", TargetRole: "  "},
		{SourceRole: "ops", TargetRole: "Tester"},
	}

	tests := []struct {
		name  string
		alloc []ResourceAllocation
		want  string
	}{
		{"hourly rate preferred", []ResourceAllocation{{Role: "Developer", Hours: dec("10")}}, "1200"},
		{"daily over 8 fallback", []ResourceAllocation{{Role: "tester", Hours: dec("10")}}, "500"},
		{"mapped role", []ResourceAllocation{{Role: "engineer", Hours: dec("2")}}, "240"},
		{
			"mapping to unpriced role contributes zero",
			[]ResourceAllocation{{Role: "Designer", Hours: dec("40")}, {Role: "Tester", Hours: dec("8")}},
			"400",
		},
		// The later ops -> Tester mapping is never consulted.
		{"blank target keeps role", []ResourceAllocation{{Role: "Ops", Hours: dec("5")}}, "0"},
		{"no allocations", nil, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &NonFunctionalItem{Title: tt.name, Allocations: tt.alloc}
			got := CalcNonFunctionalCost(item, rates, mappings)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("CalcNonFunctionalCost() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveAllocation(t *testing.T) {
	rates := []ResourceRate{{Role: "Developer", HourlyRate: dec("100")}}
	mappings := []RoleMapping{{SourceRole: "Engineer", TargetRole: "Developer"}}

	got := ResolveAllocation(ResourceAllocation{Role: "Engineer", Hours: dec("3")}, rates, mappings)
	if got.Role != "Developer" || !got.RoleRedirected || !got.RateResolved {
		t.Errorf("ResolveAllocation() = %+v", got)
	}
	if !got.Cost.Equal(dec("300")) {
		t.Errorf("Cost = %s, want 300", got.Cost)
	}

	miss := ResolveAllocation(ResourceAllocation{Role: "Nobody", Hours: dec("3")}, rates, mappings)
	if miss.RateResolved || !miss.Cost.IsZero() {
		t.Errorf("unresolved allocation = %+v", miss)
	}
}

func TestApplyContingency(t *testing.T) {
	tests := []struct {
		subtotal string
		pct      string
		want     string
	}{
		{"1000", "10", "1100"},
		{"1000", "0", "1000"},
		{"1000", "-5", "1000"},
		{"1000.005", "0", "1000.005"},
		{"333.33", "12.5", "375"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal+"@"+tt.pct, func(t *testing.T) {
			got := ApplyContingency(dec(tt.subtotal), dec(tt.pct))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ApplyContingency(%s, %s) = %s, want %s", tt.subtotal, tt.pct, got, tt.want)
			}
		})
	}
}

func TestIsDeviation(t *testing.T) {
	threshold := decimal.NewFromInt(25)
	tests := []struct {
		name    string
		average *decimal.Decimal
		actual  string
		want    bool
	}{
		{"30 percent over", decPtr("10"), "13", true},
		{"10 percent over", decPtr("10"), "11", false},
		{"exactly at threshold", decPtr("8"), "10", true},
		{"under", decPtr("10"), "7", true},
		{"zero average", decPtr("0"), "50", false},
		{"nil average", nil, "50", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDeviation(tt.average, dec(tt.actual), threshold); got != tt.want {
				t.Errorf("IsDeviation() = %v, want %v", got, tt.want)
			}
		})
	}
}
