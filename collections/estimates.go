package collections

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"softwareestimator/services"
)

// ── Load ────────────────────────────────────────────────────────────────

// LoadEstimate reads an estimate record and all of its children into the
// snapshot the cost engine works on.
func LoadEstimate(app core.App, id string) (*services.Estimate, error) {
	rec, err := app.FindRecordById(Estimates, id)
	if err != nil {
		return nil, fmt.Errorf("find estimate %s: %w", id, err)
	}
	return loadFromRecord(app, rec)
}

// LoadAllEstimates returns every estimate, newest first.
func LoadAllEstimates(app core.App) ([]*services.Estimate, error) {
	col, err := app.FindCollectionByNameOrId(Estimates)
	if err != nil {
		return nil, fmt.Errorf("find estimates collection: %w", err)
	}
	records, err := app.FindAllRecords(col)
	if err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GetDateTime("created").Time().After(records[j].GetDateTime("created").Time())
	})

	out := make([]*services.Estimate, 0, len(records))
	for _, rec := range records {
		e, err := loadFromRecord(app, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FindEstimateByReference looks an estimate up by its stable reference.
func FindEstimateByReference(app core.App, reference string) (*core.Record, error) {
	return app.FindFirstRecordByData(Estimates, "reference", reference)
}

func loadFromRecord(app core.App, rec *core.Record) (*services.Estimate, error) {
	e := &services.Estimate{
		ID:                    rec.Id,
		Reference:             rec.GetString("reference"),
		Name:                  rec.GetString("name"),
		Client:                rec.GetString("client"),
		TeamID:                rec.GetString("team_id"),
		ProblemStatement:      rec.GetString("problem_statement"),
		JiraIdeaURL:           rec.GetString("jira_idea_url"),
		JiraInitiativeURL:     rec.GetString("jira_initiative_url"),
		PreparedBy:            rec.GetString("prepared_by"),
		CreatedAt:             rec.GetDateTime("created").Time(),
		UpdatedAt:             rec.GetDateTime("updated").Time(),
		SprintLengthDays:      rec.GetInt("sprint_length_days"),
		ContingencyPercent:    getDecimal(rec, "contingency_percent"),
		FunctionalSubtotal:    getDecimal(rec, "functional_subtotal"),
		NonFunctionalSubtotal: getDecimal(rec, "non_functional_subtotal"),
		Subtotal:              getDecimal(rec, "subtotal"),
		Total:                 getDecimal(rec, "total"),
		Version:               rec.GetInt("version"),
		ClonedFromEstimateID:  rec.GetString("cloned_from_estimate_id"),
	}

	functional, err := findChildren(app, FunctionalItems, "estimate", e.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range functional {
		line := &services.FunctionalLineItem{
			ID:                  r.Id,
			Title:               r.GetString("title"),
			Description:         r.GetString("description"),
			SourceType:          services.LineSourceType(r.GetString("source_type")),
			PatternKey:          r.GetString("pattern_key"),
			Sprints:             getDecimal(r, "sprints"),
			AssignedResourceIDs: r.GetString("assigned_resource_ids"),
			IsDeviationFlagged:  r.GetBool("is_deviation_flagged"),
			Outcome:             r.GetString("outcome"),
		}
		// A zero average is stored for lines without a baseline.
		if avg := getDecimal(r, "average_sprints"); !avg.IsZero() {
			line.AverageSprints = &avg
		}
		e.FunctionalItems = append(e.FunctionalItems, line)
	}

	nonFunctional, err := findChildren(app, NonFunctionalItems, "estimate", e.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range nonFunctional {
		item := &services.NonFunctionalItem{
			ID:          r.Id,
			Title:       r.GetString("title"),
			Description: r.GetString("description"),
		}
		allocs, err := findChildren(app, Allocations, "non_functional_item", r.Id)
		if err != nil {
			return nil, err
		}
		for _, a := range allocs {
			item.Allocations = append(item.Allocations, services.ResourceAllocation{
				ID:    a.Id,
				Role:  a.GetString("role"),
				Hours: getDecimal(a, "hours"),
			})
		}
		e.NonFunctionalItems = append(e.NonFunctionalItems, item)
	}

	rates, err := findChildren(app, ResourceRates, "estimate", e.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range rates {
		e.ResourceRates = append(e.ResourceRates, services.ResourceRate{
			ID:           r.Id,
			Role:         r.GetString("role"),
			Type:         services.ResourceType(r.GetString("type")),
			DailyRate:    getDecimal(r, "daily_rate"),
			HourlyRate:   getDecimal(r, "hourly_rate"),
			SourceKey:    r.GetString("source_key"),
			LegacyNumber: r.GetInt("legacy_number"),
		})
	}

	mappings, err := findChildren(app, RoleMappings, "estimate", e.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range mappings {
		e.RoleMappings = append(e.RoleMappings, services.RoleMapping{
			ID:         r.Id,
			SourceRole: r.GetString("source_role"),
			TargetRole: r.GetString("target_role"),
		})
	}

	return e, nil
}

func findChildren(app core.App, collection, parentField, parentID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		collection,
		parentField+" = {:parentId}",
		"sort_order",
		0, 0,
		map[string]any{"parentId": parentID},
	)
	if err != nil {
		return nil, fmt.Errorf("load %s for %s: %w", collection, parentID, err)
	}
	return records, nil
}

func getDecimal(r *core.Record, field string) decimal.Decimal {
	return decimal.NewFromFloat(r.GetFloat(field))
}

// ── Save ────────────────────────────────────────────────────────────────

// SaveEstimate creates or updates e and all of its children in one
// transaction. Children are matched by id: known ids are updated, new ones
// created and records no longer present deleted. Ids assigned by the store
// are written back onto e.
func SaveEstimate(app core.App, e *services.Estimate) error {
	if e.Reference == "" {
		e.Reference = uuid.NewString()
	}
	e.RoleMappings = services.UniqueRoleMappings(e.RoleMappings)

	return app.RunInTransaction(func(txApp core.App) error {
		var rec *core.Record
		if e.ID != "" {
			existing, err := txApp.FindRecordById(Estimates, e.ID)
			if err != nil {
				return fmt.Errorf("find estimate %s: %w", e.ID, err)
			}
			rec = existing
		} else {
			col, err := txApp.FindCollectionByNameOrId(Estimates)
			if err != nil {
				return fmt.Errorf("find estimates collection: %w", err)
			}
			rec = core.NewRecord(col)
		}

		sprintDays := e.SprintLengthDays
		if sprintDays <= 0 {
			sprintDays = services.DefaultSprintLengthDays
		}
		version := e.Version
		if version <= 0 {
			version = 1
		}

		rec.Set("reference", e.Reference)
		rec.Set("name", e.Name)
		rec.Set("client", e.Client)
		rec.Set("team_id", e.TeamID)
		rec.Set("problem_statement", e.ProblemStatement)
		rec.Set("jira_idea_url", e.JiraIdeaURL)
		rec.Set("jira_initiative_url", e.JiraInitiativeURL)
		rec.Set("prepared_by", e.PreparedBy)
		rec.Set("sprint_length_days", sprintDays)
		rec.Set("contingency_percent", e.ContingencyPercent.InexactFloat64())
		rec.Set("functional_subtotal", e.FunctionalSubtotal.InexactFloat64())
		rec.Set("non_functional_subtotal", e.NonFunctionalSubtotal.InexactFloat64())
		rec.Set("subtotal", e.Subtotal.InexactFloat64())
		rec.Set("total", e.Total.InexactFloat64())
		rec.Set("version", version)
		rec.Set("cloned_from_estimate_id", e.ClonedFromEstimateID)

		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save estimate %q: %w", e.Name, err)
		}
		e.ID = rec.Id
		e.SprintLengthDays = sprintDays
		e.Version = version
		e.CreatedAt = rec.GetDateTime("created").Time()
		e.UpdatedAt = rec.GetDateTime("updated").Time()

		return saveChildren(txApp, e)
	})
}

func saveChildren(txApp core.App, e *services.Estimate) error {
	var functional []*services.FunctionalLineItem
	for _, f := range e.FunctionalItems {
		if f != nil {
			functional = append(functional, f)
		}
	}
	e.FunctionalItems = functional
	err := syncChildren(txApp, FunctionalItems, "estimate", e.ID, len(functional),
		func(i int) *string { return &functional[i].ID },
		func(i int, r *core.Record) {
			f := functional[i]
			source := f.SourceType
			if source == "" {
				source = services.SourceCustom
			}
			avg := 0.0
			if f.AverageSprints != nil {
				avg = f.AverageSprints.InexactFloat64()
			}
			r.Set("title", f.Title)
			r.Set("description", f.Description)
			r.Set("source_type", string(source))
			r.Set("pattern_key", f.PatternKey)
			r.Set("average_sprints", avg)
			r.Set("sprints", f.Sprints.InexactFloat64())
			r.Set("assigned_resource_ids", f.AssignedResourceIDs)
			r.Set("is_deviation_flagged", f.IsDeviationFlagged)
			r.Set("outcome", f.Outcome)
		})
	if err != nil {
		return err
	}

	var nonFunctional []*services.NonFunctionalItem
	for _, n := range e.NonFunctionalItems {
		if n != nil {
			nonFunctional = append(nonFunctional, n)
		}
	}
	e.NonFunctionalItems = nonFunctional
	err = syncChildren(txApp, NonFunctionalItems, "estimate", e.ID, len(nonFunctional),
		func(i int) *string { return &nonFunctional[i].ID },
		func(i int, r *core.Record) {
			r.Set("title", nonFunctional[i].Title)
			r.Set("description", nonFunctional[i].Description)
		})
	if err != nil {
		return err
	}
	for _, n := range nonFunctional {
		allocs := n.Allocations
		err := syncChildren(txApp, Allocations, "non_functional_item", n.ID, len(allocs),
			func(i int) *string { return &allocs[i].ID },
			func(i int, r *core.Record) {
				r.Set("role", allocs[i].Role)
				r.Set("hours", allocs[i].Hours.InexactFloat64())
			})
		if err != nil {
			return err
		}
	}

	rates := e.ResourceRates
	err = syncChildren(txApp, ResourceRates, "estimate", e.ID, len(rates),
		func(i int) *string { return &rates[i].ID },
		func(i int, r *core.Record) {
			rt := rates[i].Type
			if rt == "" {
				rt = services.ResourceFTE
			}
			r.Set("role", rates[i].Role)
			r.Set("type", string(rt))
			r.Set("daily_rate", rates[i].DailyRate.InexactFloat64())
			r.Set("hourly_rate", rates[i].HourlyRate.InexactFloat64())
			r.Set("source_key", rates[i].SourceKey)
			r.Set("legacy_number", rates[i].LegacyNumber)
		})
	if err != nil {
		return err
	}

	mappings := e.RoleMappings
	return syncChildren(txApp, RoleMappings, "estimate", e.ID, len(mappings),
		func(i int) *string { return &mappings[i].ID },
		func(i int, r *core.Record) {
			r.Set("source_role", mappings[i].SourceRole)
			r.Set("target_role", mappings[i].TargetRole)
		})
}

// syncChildren makes the child records of parentID match n domain items.
// id returns a pointer to the i-th item's id so new record ids are written
// back; fill copies the item's fields onto its record. Records whose id is
// not among the items are deleted.
func syncChildren(
	txApp core.App,
	collection string,
	parentField string,
	parentID string,
	n int,
	id func(i int) *string,
	fill func(i int, r *core.Record),
) error {
	col, err := txApp.FindCollectionByNameOrId(collection)
	if err != nil {
		return fmt.Errorf("find %s collection: %w", collection, err)
	}
	existing, err := findChildren(txApp, collection, parentField, parentID)
	if err != nil {
		return err
	}
	byID := make(map[string]*core.Record, len(existing))
	for _, r := range existing {
		byID[r.Id] = r
	}

	// Deletions first so a re-added role mapping does not trip the unique index.
	keep := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		if _, ok := byID[*id(i)]; ok {
			keep[*id(i)] = true
		}
	}
	for recID, r := range byID {
		if keep[recID] {
			continue
		}
		if err := txApp.Delete(r); err != nil {
			return fmt.Errorf("delete %s %s: %w", collection, recID, err)
		}
	}

	for i := 0; i < n; i++ {
		rec, ok := byID[*id(i)]
		if !ok {
			rec = core.NewRecord(col)
		}
		rec.Set(parentField, parentID)
		rec.Set("sort_order", i+1)
		fill(i, rec)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save %s row %d: %w", collection, i+1, err)
		}
		*id(i) = rec.Id
	}
	return nil
}

// DeleteEstimate removes an estimate; its children cascade.
func DeleteEstimate(app core.App, id string) error {
	rec, err := app.FindRecordById(Estimates, id)
	if err != nil {
		return fmt.Errorf("find estimate %s: %w", id, err)
	}
	if err := app.Delete(rec); err != nil {
		return fmt.Errorf("delete estimate %s: %w", id, err)
	}
	return nil
}
