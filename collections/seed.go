package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"softwareestimator/services"
)

// ── Definition structs ───────────────────────────────────────────────────

type rateDef struct {
	role       string
	rateType   services.ResourceType
	dailyRate  float64
	hourlyRate float64
	sourceKey  string
	number     int
}

type lineDef struct {
	title      string
	patternKey string
	average    float64
	sprints    float64
	assigned   string
}

type allocDef struct {
	role  string
	hours float64
}

type nonFunctionalDef struct {
	title  string
	allocs []allocDef
}

var seedRates = []rateDef{
	{"Tech Lead", services.ResourceFTE, 1200, 0, "team-a-FTE-1", 1},
	{"Developer", services.ResourceFTE, 950, 0, "team-a-FTE-2", 2},
	{"Developer", services.ResourceFTE, 950, 0, "team-a-FTE-3", 3},
	{"Tester", services.ResourceContractor, 700, 90, "team-b-CTR-4", 4},
	{"Designer", services.ResourceContractor, 800, 0, "team-b-CTR-5", 5},
}

var seedLines = []lineDef{
	{"Single sign-on login", "auth-login", 1.5, 1.5, "team-a-FTE-1:50,team-a-FTE-2:100"},
	{"Customer dashboard", "dashboard", 2, 3, "team-a-FTE-2:100,team-a-FTE-3:100,team-b-CTR-5:50"},
	{"Invoice PDF download", "", 0, 1, "2,4:50"}, // legacy numeric format
}

var seedNonFunctional = []nonFunctionalDef{
	{"Quality assurance", []allocDef{{"QA", 60}, {"Developer", 16}}},
	{"Release and hypercare", []allocDef{{"Tech Lead", 12}, {"DevOps", 8}}},
}

// Seed inserts a demo estimate when the estimates collection is empty. It
// is safe to call on every startup because it returns early otherwise.
func Seed(app core.App) error {
	col, err := app.FindCollectionByNameOrId(Estimates)
	if err != nil {
		return fmt.Errorf("seed: could not find estimates collection: %w", err)
	}
	existing, err := app.FindAllRecords(col)
	if err != nil {
		return fmt.Errorf("seed: could not query estimates: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: estimates collection is empty – inserting seed data …")

	e := services.NewEstimate("Customer Portal Modernisation", "Northwind Traders")
	e.TeamID = "team-a"
	e.PreparedBy = "Delivery Office"
	e.ProblemStatement = "Replace the legacy customer portal with a self-service web app."
	e.ContingencyPercent = decimal.NewFromInt(15)

	for _, r := range seedRates {
		e.ResourceRates = append(e.ResourceRates, services.ResourceRate{
			Role:         r.role,
			Type:         r.rateType,
			DailyRate:    decimal.NewFromFloat(r.dailyRate),
			HourlyRate:   decimal.NewFromFloat(r.hourlyRate),
			SourceKey:    r.sourceKey,
			LegacyNumber: r.number,
		})
	}
	e.RoleMappings = []services.RoleMapping{{SourceRole: "QA", TargetRole: "Tester"}}

	for _, l := range seedLines {
		line := &services.FunctionalLineItem{
			Title:               l.title,
			SourceType:          services.SourceCustom,
			Sprints:             decimal.NewFromFloat(l.sprints),
			AssignedResourceIDs: l.assigned,
		}
		if l.patternKey != "" {
			avg := decimal.NewFromFloat(l.average)
			line.SourceType = services.SourceCommonPattern
			line.PatternKey = l.patternKey
			line.AverageSprints = &avg
		}
		e.FunctionalItems = append(e.FunctionalItems, line)
	}

	for _, nf := range seedNonFunctional {
		item := &services.NonFunctionalItem{Title: nf.title}
		for _, a := range nf.allocs {
			item.Allocations = append(item.Allocations, services.ResourceAllocation{
				Role:  a.role,
				Hours: decimal.NewFromFloat(a.hours),
			})
		}
		e.NonFunctionalItems = append(e.NonFunctionalItems, item)
	}

	services.RefreshDeviationFlags(e, services.DefaultDeviationThreshold)
	services.ApplyTotals(e, services.CalcEstimateTotals(e, services.BasisSquadRate))

	if err := SaveEstimate(app, e); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	log.Printf("seed: created estimate %q (%s)\n", e.Name, e.ID)
	return nil
}
