package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CostBasis selects how functional lines are priced. The engine never picks
// one on its own; the caller knows how the estimate was built.
type CostBasis string

const (
	// BasisSquadRate prices every line at sprints x blended squad rate.
	BasisSquadRate CostBasis = "squad"
	// BasisAssignment prices every line from its named resource assignments.
	BasisAssignment CostBasis = "assignment"
)

// ParseCostBasis accepts "squad" or "assignment" in any case. An empty string
// selects the squad-rate basis.
func ParseCostBasis(s string) (CostBasis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BasisSquadRate):
		return BasisSquadRate, nil
	case string(BasisAssignment):
		return BasisAssignment, nil
	}
	return "", fmt.Errorf("unknown cost basis %q", s)
}

// LineCost is the priced result for one functional or non-functional line.
type LineCost struct {
	ID      string          `json:"id,omitempty"`
	Title   string          `json:"title"`
	Cost    decimal.Decimal `json:"cost"`
	Flagged bool            `json:"flagged,omitempty"`
}

// EstimateTotals is everything the exports and the summary view display.
// All amounts are already rounded; renderers must not recompute them.
type EstimateTotals struct {
	Basis                 CostBasis       `json:"basis"`
	SquadCostPerSprint    decimal.Decimal `json:"squad_cost_per_sprint"`
	FunctionalLines       []LineCost      `json:"functional_lines"`
	NonFunctionalLines    []LineCost      `json:"non_functional_lines"`
	FunctionalSubtotal    decimal.Decimal `json:"functional_subtotal"`
	NonFunctionalSubtotal decimal.Decimal `json:"non_functional_subtotal"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	ContingencyPercent    decimal.Decimal `json:"contingency_percent"`
	ContingencyAmount     decimal.Decimal `json:"contingency_amount"`
	Total                 decimal.Decimal `json:"total"`
}

// CalcEstimateTotals prices every line of e on the given basis and rolls the
// rounded line costs up into subtotals and a total with contingency.
func CalcEstimateTotals(e *Estimate, basis CostBasis) EstimateTotals {
	totals := EstimateTotals{
		Basis:                 basis,
		SquadCostPerSprint:    decimal.Zero,
		FunctionalSubtotal:    decimal.Zero,
		NonFunctionalSubtotal: decimal.Zero,
		ContingencyPercent:    decimal.Zero,
		Subtotal:              decimal.Zero,
		ContingencyAmount:     decimal.Zero,
		Total:                 decimal.Zero,
	}
	if e == nil {
		return totals
	}

	squad := BuildSquadComposition(e.ResourceRates, e.SprintLengthDays)
	totals.SquadCostPerSprint = CalcSquadCostPerSprint(squad)
	totals.ContingencyPercent = e.ContingencyPercent

	for _, f := range e.FunctionalItems {
		if f == nil {
			continue
		}
		var cost decimal.Decimal
		if basis == BasisAssignment {
			cost = CalcFunctionalLineCostByAssignment(f, e)
		} else {
			cost = CalcFunctionalLineCost(f.Sprints, totals.SquadCostPerSprint)
		}
		totals.FunctionalLines = append(totals.FunctionalLines, LineCost{
			ID:      f.ID,
			Title:   f.Title,
			Cost:    cost,
			Flagged: f.IsDeviationFlagged,
		})
		totals.FunctionalSubtotal = totals.FunctionalSubtotal.Add(cost)
	}

	for _, n := range e.NonFunctionalItems {
		if n == nil {
			continue
		}
		cost := CalcNonFunctionalCost(n, e.ResourceRates, e.RoleMappings)
		totals.NonFunctionalLines = append(totals.NonFunctionalLines, LineCost{
			ID:    n.ID,
			Title: n.Title,
			Cost:  cost,
		})
		totals.NonFunctionalSubtotal = totals.NonFunctionalSubtotal.Add(cost)
	}

	totals.Subtotal = SumMoney(totals.FunctionalSubtotal, totals.NonFunctionalSubtotal)
	totals.Total = ApplyContingency(totals.Subtotal, e.ContingencyPercent)
	totals.ContingencyAmount = totals.Total.Sub(totals.Subtotal)
	return totals
}

// RefreshDeviationFlags recomputes the persisted deviation snapshot of every
// functional line and returns how many lines are flagged.
func RefreshDeviationFlags(e *Estimate, thresholdPercent decimal.Decimal) int {
	if e == nil {
		return 0
	}
	flagged := 0
	for _, f := range e.FunctionalItems {
		if f == nil {
			continue
		}
		f.IsDeviationFlagged = IsDeviation(f.AverageSprints, f.Sprints, thresholdPercent)
		if f.IsDeviationFlagged {
			flagged++
		}
	}
	return flagged
}

// ApplyTotals copies computed subtotals onto the estimate's persisted
// snapshot fields.
func ApplyTotals(e *Estimate, t EstimateTotals) {
	if e == nil {
		return
	}
	e.FunctionalSubtotal = t.FunctionalSubtotal
	e.NonFunctionalSubtotal = t.NonFunctionalSubtotal
	e.Subtotal = t.Subtotal
	e.Total = t.Total
}

// HasDeviations reports whether any line carries a deviation flag.
func (e *Estimate) HasDeviations() bool {
	for _, f := range e.FunctionalItems {
		if f != nil && f.IsDeviationFlagged {
			return true
		}
	}
	return false
}
