// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/collections"
	"softwareestimator/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestEstimate creates an estimate record with default settings and
// returns it.
func CreateTestEstimate(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.Estimates)
	if err != nil {
		t.Fatalf("failed to find estimates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("reference", uuid.NewString())
	record.Set("name", name)
	record.Set("client", "Test Client")
	record.Set("sprint_length_days", services.DefaultSprintLengthDays)
	record.Set("version", 1)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test estimate: %v", err)
	}

	return record
}

// CreateTestResourceRate creates a rate linked to an estimate.
func CreateTestResourceRate(t *testing.T, app *pocketbase.PocketBase, estimateID, role, rateType string, dailyRate float64, sourceKey string, legacyNumber int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.ResourceRates)
	if err != nil {
		t.Fatalf("failed to find resource_rates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("role", role)
	record.Set("type", rateType)
	record.Set("daily_rate", dailyRate)
	record.Set("source_key", sourceKey)
	record.Set("legacy_number", legacyNumber)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test resource rate: %v", err)
	}

	return record
}

// CreateTestFunctionalItem creates a custom functional line item.
func CreateTestFunctionalItem(t *testing.T, app *pocketbase.PocketBase, estimateID string, sortOrder int, title string, sprints float64, assigned string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.FunctionalItems)
	if err != nil {
		t.Fatalf("failed to find functional_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("sort_order", sortOrder)
	record.Set("title", title)
	record.Set("source_type", string(services.SourceCustom))
	record.Set("sprints", sprints)
	record.Set("assigned_resource_ids", assigned)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test functional item: %v", err)
	}

	return record
}

// CreateTestNonFunctionalItem creates a non-functional item record.
func CreateTestNonFunctionalItem(t *testing.T, app *pocketbase.PocketBase, estimateID string, sortOrder int, title string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.NonFunctionalItems)
	if err != nil {
		t.Fatalf("failed to find non_functional_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("sort_order", sortOrder)
	record.Set("title", title)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test non-functional item: %v", err)
	}

	return record
}

// CreateTestAllocation creates a role-hours allocation under a non-functional item.
func CreateTestAllocation(t *testing.T, app *pocketbase.PocketBase, itemID string, sortOrder int, role string, hours float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.Allocations)
	if err != nil {
		t.Fatalf("failed to find resource_allocations collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("non_functional_item", itemID)
	record.Set("sort_order", sortOrder)
	record.Set("role", role)
	record.Set("hours", hours)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test allocation: %v", err)
	}

	return record
}

// CreateTestRoleMapping creates a role mapping record.
func CreateTestRoleMapping(t *testing.T, app *pocketbase.PocketBase, estimateID, sourceRole, targetRole string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.RoleMappings)
	if err != nil {
		t.Fatalf("failed to find role_mappings collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("source_role", sourceRole)
	record.Set("target_role", targetRole)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test role mapping: %v", err)
	}

	return record
}

// WriteCatalogFile writes a catalog file into dir for reference-data tests.
func WriteCatalogFile(t *testing.T, dir, name, body string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write catalog file %s: %v", name, err)
	}
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
