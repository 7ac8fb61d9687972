package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/services"
)

// LegacyNumberMapsFromRates collects the source key -> static number pairs
// carried by stored resource rates, grouped by estimate id. Numbers are only
// unique within one estimate's rate card.
func LegacyNumberMapsFromRates(app core.App) (map[string]map[string]int, error) {
	records, err := app.FindRecordsByFilter(
		ResourceRates,
		"source_key != '' && legacy_number > 0",
		"",
		0, 0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("migrate: could not query resource rates: %w", err)
	}

	rates := make(map[string][]services.ResourceRate)
	for _, r := range records {
		estimateID := r.GetString("estimate")
		rates[estimateID] = append(rates[estimateID], services.ResourceRate{
			SourceKey:    r.GetString("source_key"),
			LegacyNumber: r.GetInt("legacy_number"),
		})
	}

	out := make(map[string]map[string]int, len(rates))
	for estimateID, rs := range rates {
		out[estimateID] = services.LegacyNumberMap(rs)
	}
	return out, nil
}

// MigrateLegacyAssignments rewrites functional items still using numeric
// resource indices into keyed assignments. Each estimate's lines resolve
// numbers against that estimate's own resource rates; extra entries (e.g.
// from a mapping file) take precedence in every estimate. Only rows whose
// stored string changes are saved. Safe to call on every startup.
func MigrateLegacyAssignments(app core.App, extra map[string]int) (services.MigrationStats, error) {
	var stats services.MigrationStats

	byEstimate, err := LegacyNumberMapsFromRates(app)
	if err != nil {
		return stats, err
	}

	records, err := app.FindRecordsByFilter(
		FunctionalItems,
		"assigned_resource_ids != ''",
		"",
		0, 0,
		nil,
	)
	if err != nil {
		return stats, fmt.Errorf("migrate: could not query functional items: %w", err)
	}
	if len(records) == 0 {
		return stats, nil
	}

	// Group lines by estimate, keeping first-seen order for stable logging.
	var order []string
	holders := make(map[string]*services.Estimate)
	lines := make([]*services.FunctionalLineItem, len(records))
	for i, r := range records {
		estimateID := r.GetString("estimate")
		holder, ok := holders[estimateID]
		if !ok {
			holder = &services.Estimate{ID: estimateID}
			holders[estimateID] = holder
			order = append(order, estimateID)
		}
		lines[i] = &services.FunctionalLineItem{
			ID:                  r.Id,
			AssignedResourceIDs: r.GetString("assigned_resource_ids"),
		}
		holder.FunctionalItems = append(holder.FunctionalItems, lines[i])
	}

	for _, estimateID := range order {
		numberToKey := make(map[string]int)
		for k, n := range byEstimate[estimateID] {
			numberToKey[k] = n
		}
		for k, n := range extra {
			numberToKey[k] = n
		}
		s := services.MigrateAssignments([]*services.Estimate{holders[estimateID]}, numberToKey)
		stats.LinesScanned += s.LinesScanned
		stats.LinesRewritten += s.LinesRewritten
		stats.EntriesDropped += s.EntriesDropped
	}
	if stats.LinesRewritten == 0 {
		return stats, nil
	}

	log.Printf("migrate: rewriting %d legacy assignment(s), %d unresolved entr(ies) dropped\n",
		stats.LinesRewritten, stats.EntriesDropped)

	for i, r := range records {
		migrated := lines[i].AssignedResourceIDs
		if migrated == r.GetString("assigned_resource_ids") {
			continue
		}
		r.Set("assigned_resource_ids", migrated)
		if err := app.Save(r); err != nil {
			log.Printf("migrate: failed to save functional item %s: %v\n", r.Id, err)
			continue
		}
	}

	log.Println("migrate: legacy assignment migration complete.")
	return stats, nil
}
