package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Export sections.
const (
	SectionFunctional    = "Functional"
	SectionNonFunctional = "NonFunctional"
)

// ExportRow is a single priced row in an estimate export.
type ExportRow struct {
	Section  string
	Level    int    // 0 = line/item, 1 = allocation under a non-functional item
	Index    string // "1", "2.1" etc
	Title    string
	Detail   string          // effective role for allocation rows
	Quantity decimal.Decimal // sprints for functional lines, hours for allocations
	Rate     decimal.Decimal // hourly rate for allocation rows
	Cost     decimal.Decimal
	Flagged  bool
}

// RateRow is one entry of the team composition table.
type RateRow struct {
	Role       string
	Type       ResourceType
	DailyRate  decimal.Decimal
	HourlyRate decimal.Decimal
}

// ExportData holds everything the CSV, Excel and PDF renderers need. All
// amounts come from the cost engine already rounded.
type ExportData struct {
	Title              string
	Client             string
	Reference          string
	TeamID             string
	PreparedBy         string
	CreatedDate        string
	Version            int
	SprintLengthDays   int
	Basis              CostBasis
	SquadCostPerSprint decimal.Decimal

	FunctionalRows    []ExportRow
	NonFunctionalRows []ExportRow
	Rates             []RateRow

	FunctionalSubtotal    decimal.Decimal
	NonFunctionalSubtotal decimal.Decimal
	Subtotal              decimal.Decimal
	ContingencyPercent    decimal.Decimal
	ContingencyAmount     decimal.Decimal
	Total                 decimal.Decimal
	HasDeviations         bool
}

// BuildExportData flattens an estimate and its computed totals into rows.
// Allocation rows reuse ResolveAllocation so they always agree with the
// item cost.
func BuildExportData(e *Estimate, totals EstimateTotals) ExportData {
	data := ExportData{
		Title:                 e.Name,
		Client:                e.Client,
		Reference:             e.Reference,
		TeamID:                e.TeamID,
		PreparedBy:            e.PreparedBy,
		CreatedDate:           "—",
		Version:               e.Version,
		SprintLengthDays:      e.SprintLengthDays,
		Basis:                 totals.Basis,
		SquadCostPerSprint:    totals.SquadCostPerSprint,
		FunctionalSubtotal:    totals.FunctionalSubtotal,
		NonFunctionalSubtotal: totals.NonFunctionalSubtotal,
		Subtotal:              totals.Subtotal,
		ContingencyPercent:    totals.ContingencyPercent,
		ContingencyAmount:     totals.ContingencyAmount,
		Total:                 totals.Total,
		HasDeviations:         e.HasDeviations(),
	}
	if !e.CreatedAt.IsZero() {
		data.CreatedDate = e.CreatedAt.Format("02 Jan 2006")
	}

	fi := 0
	for _, f := range e.FunctionalItems {
		if f == nil {
			continue
		}
		var cost decimal.Decimal
		if fi < len(totals.FunctionalLines) {
			cost = totals.FunctionalLines[fi].Cost
		}
		fi++
		data.FunctionalRows = append(data.FunctionalRows, ExportRow{
			Section:  SectionFunctional,
			Index:    fmt.Sprintf("%d", fi),
			Title:    f.Title,
			Quantity: f.Sprints,
			Cost:     cost,
			Flagged:  f.IsDeviationFlagged,
		})
	}

	book := newRateBook(e.ResourceRates, e.RoleMappings)
	ni := 0
	for _, n := range e.NonFunctionalItems {
		if n == nil {
			continue
		}
		var itemCost decimal.Decimal
		if ni < len(totals.NonFunctionalLines) {
			itemCost = totals.NonFunctionalLines[ni].Cost
		}
		ni++
		data.NonFunctionalRows = append(data.NonFunctionalRows, ExportRow{
			Section: SectionNonFunctional,
			Level:   0,
			Index:   fmt.Sprintf("%d", ni),
			Title:   n.Title,
			Cost:    itemCost,
		})
		for j, a := range n.Allocations {
			ac := book.resolve(a)
			data.NonFunctionalRows = append(data.NonFunctionalRows, ExportRow{
				Section:  SectionNonFunctional,
				Level:    1,
				Index:    fmt.Sprintf("%d.%d", ni, j+1),
				Title:    n.Title,
				Detail:   ac.Role,
				Quantity: ac.Hours,
				Rate:     ac.HourlyRate,
				Cost:     RoundMoney(ac.Cost),
			})
		}
	}

	for _, r := range e.ResourceRates {
		data.Rates = append(data.Rates, RateRow{
			Role:       r.Role,
			Type:       r.Type,
			DailyRate:  r.DailyRate,
			HourlyRate: r.HourlyRate,
		})
	}

	return data
}

// FTECount and ContractorCount summarize the composition table.
func (d ExportData) FTECount() int        { return d.countType(ResourceFTE) }
func (d ExportData) ContractorCount() int { return d.countType(ResourceContractor) }

func (d ExportData) countType(t ResourceType) int {
	n := 0
	for _, r := range d.Rates {
		if r.Type == t {
			n++
		}
	}
	return n
}

// DocumentNumber is the short reference printed on documents.
func (d ExportData) DocumentNumber() string {
	ref := strings.ReplaceAll(d.Reference, "-", "")
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return strings.ToUpper(ref)
}
