// Package services provides the estimate cost engine, the resource
// assignment codec, reference-data catalogs and document exports.
package services

import "github.com/shopspring/decimal"

// DefaultDeviationThreshold is the percent by which a line's sprints may
// differ from its pattern average before it is flagged for review.
var DefaultDeviationThreshold = decimal.NewFromInt(25)

// SquadComposition describes the blended team a squad-rate estimate is
// priced against.
type SquadComposition struct {
	FteCount            int
	ContractorCount     int
	FteDailyRate        decimal.Decimal
	ContractorDailyRate decimal.Decimal
	SprintLengthDays    int
}

// BuildSquadComposition partitions rates by type and averages each
// partition's daily rate. An empty partition averages to zero.
func BuildSquadComposition(rates []ResourceRate, sprintLengthDays int) SquadComposition {
	var fteCount, ctrCount int
	fteSum, ctrSum := decimal.Zero, decimal.Zero
	for _, r := range rates {
		switch r.Type {
		case ResourceFTE:
			fteCount++
			fteSum = fteSum.Add(r.DailyRate)
		case ResourceContractor:
			ctrCount++
			ctrSum = ctrSum.Add(r.DailyRate)
		}
	}
	comp := SquadComposition{
		FteCount:            fteCount,
		ContractorCount:     ctrCount,
		FteDailyRate:        decimal.Zero,
		ContractorDailyRate: decimal.Zero,
		SprintLengthDays:    sprintLengthDays,
	}
	if fteCount > 0 {
		comp.FteDailyRate = fteSum.Div(decimal.NewFromInt(int64(fteCount)))
	}
	if ctrCount > 0 {
		comp.ContractorDailyRate = ctrSum.Div(decimal.NewFromInt(int64(ctrCount)))
	}
	return comp
}

// CalcSquadCostPerSprint returns the cost of one sprint of the whole squad.
func CalcSquadCostPerSprint(c SquadComposition) decimal.Decimal {
	days := decimal.NewFromInt(int64(c.SprintLengthDays))
	fte := decimal.NewFromInt(int64(c.FteCount)).Mul(c.FteDailyRate).Mul(days)
	ctr := decimal.NewFromInt(int64(c.ContractorCount)).Mul(c.ContractorDailyRate).Mul(days)
	return RoundMoney(fte.Add(ctr))
}

// CalcFunctionalLineCost prices a functional line on the squad-rate basis.
func CalcFunctionalLineCost(sprints, squadCostPerSprint decimal.Decimal) decimal.Decimal {
	return RoundMoney(sprints.Mul(squadCostPerSprint))
}

// CalcFunctionalLineCostByAssignment prices a functional line from the named
// resources assigned to it and their utilization. Assignments whose key has
// no matching rate contribute nothing.
func CalcFunctionalLineCostByAssignment(line *FunctionalLineItem, est *Estimate) decimal.Decimal {
	if line == nil || est == nil {
		return decimal.Zero
	}
	lineDays := line.Sprints.Mul(decimal.NewFromInt(int64(est.SprintLengthDays)))
	bySourceKey := newFoldedIndex(est.ResourceRates, func(r ResourceRate) string { return r.SourceKey })

	total := decimal.Zero
	line.AssignedResources().Each(func(key string, percent decimal.Decimal) {
		rate, ok := bySourceKey.lookup(key)
		if !ok {
			return
		}
		share := ClampPercent(percent).Div(hundred)
		total = total.Add(rate.DailyRate.Mul(lineDays).Mul(share))
	})
	return RoundMoney(total)
}

// AllocationCost is one allocation priced against the estimate's rates.
type AllocationCost struct {
	Role           string // role after mapping
	Hours          decimal.Decimal
	HourlyRate     decimal.Decimal
	Cost           decimal.Decimal // unrounded
	RateResolved   bool
	RoleRedirected bool
}

// rateBook holds the case-insensitive lookups a non-functional calculation
// needs. Build it once per item.
type rateBook struct {
	byRole   foldedIndex[ResourceRate]
	mappings foldedIndex[RoleMapping]
}

func newRateBook(rates []ResourceRate, mappings []RoleMapping) rateBook {
	return rateBook{
		byRole:   newFoldedIndex(rates, func(r ResourceRate) string { return r.Role }),
		mappings: newFoldedIndex(mappings, func(m RoleMapping) string { return m.SourceRole }),
	}
}

func (b rateBook) resolve(a ResourceAllocation) AllocationCost {
	out := AllocationCost{Role: a.Role, Hours: a.Hours, HourlyRate: decimal.Zero, Cost: decimal.Zero}
	if m, ok := b.mappings.lookup(a.Role); ok && !isBlank(m.TargetRole) {
		out.Role = m.TargetRole
		out.RoleRedirected = true
	}
	rate, ok := b.byRole.lookup(out.Role)
	if !ok {
		return out
	}
	out.RateResolved = true
	out.HourlyRate = effectiveHourlyRate(rate)
	out.Cost = a.Hours.Mul(out.HourlyRate)
	return out
}

// ResolveAllocation applies role mappings and rate lookup to a single
// allocation. Exports use it so detail rows agree with the item cost.
func ResolveAllocation(a ResourceAllocation, rates []ResourceRate, mappings []RoleMapping) AllocationCost {
	return newRateBook(rates, mappings).resolve(a)
}

// effectiveHourlyRate prefers the hourly rate and falls back to an 8 hour day.
func effectiveHourlyRate(r ResourceRate) decimal.Decimal {
	if r.HourlyRate.IsPositive() {
		return r.HourlyRate
	}
	return r.DailyRate.Div(hoursPerDay)
}

// CalcNonFunctionalCost prices a non-functional item by its role-hour
// allocations. Roles are first redirected through mappings; allocations whose
// role has no rate contribute nothing.
func CalcNonFunctionalCost(item *NonFunctionalItem, rates []ResourceRate, mappings []RoleMapping) decimal.Decimal {
	if item == nil {
		return decimal.Zero
	}
	book := newRateBook(rates, mappings)
	total := decimal.Zero
	for _, a := range item.Allocations {
		total = total.Add(book.resolve(a).Cost)
	}
	return RoundMoney(total)
}

// ApplyContingency adds contingencyPercent of subtotal. A non-positive
// percent returns subtotal untouched, without rounding it again.
func ApplyContingency(subtotal, contingencyPercent decimal.Decimal) decimal.Decimal {
	if !contingencyPercent.IsPositive() {
		return subtotal
	}
	extra := subtotal.Mul(contingencyPercent.Div(hundred))
	return RoundMoney(subtotal.Add(extra))
}

// IsDeviation reports whether actualSprints is at least thresholdPercent away
// from averageSprints. Without a non-zero baseline nothing is a deviation.
func IsDeviation(averageSprints *decimal.Decimal, actualSprints, thresholdPercent decimal.Decimal) bool {
	if averageSprints == nil || averageSprints.IsZero() {
		return false
	}
	avg := *averageSprints
	delta := actualSprints.Sub(avg).Abs()
	pct := delta.Div(avg).Mul(hundred)
	return pct.GreaterThanOrEqual(thresholdPercent)
}
