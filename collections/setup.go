package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/services"
)

// Collection names.
const (
	Estimates          = "estimates"
	FunctionalItems    = "functional_items"
	NonFunctionalItems = "non_functional_items"
	Allocations        = "resource_allocations"
	ResourceRates      = "resource_rates"
	RoleMappings       = "role_mappings"
)

// Setup programmatically creates/ensures the estimate collections and their
// child collections exist. Child records cascade-delete with their parent.
func Setup(app *pocketbase.PocketBase) {
	estimates := ensureCollection(app, Estimates, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "reference", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "client"})
		c.Fields.Add(&core.TextField{Name: "team_id"})
		c.Fields.Add(&core.TextField{Name: "problem_statement"})
		c.Fields.Add(&core.TextField{Name: "jira_idea_url"})
		c.Fields.Add(&core.TextField{Name: "jira_initiative_url"})
		c.Fields.Add(&core.TextField{Name: "prepared_by"})
		c.Fields.Add(&core.NumberField{Name: "sprint_length_days", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "contingency_percent"})
		c.Fields.Add(&core.NumberField{Name: "functional_subtotal"})
		c.Fields.Add(&core.NumberField{Name: "non_functional_subtotal"})
		c.Fields.Add(&core.NumberField{Name: "subtotal"})
		c.Fields.Add(&core.NumberField{Name: "total"})
		c.Fields.Add(&core.NumberField{Name: "version", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "cloned_from_estimate_id"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_estimates_reference", true, "reference", "")
	})

	ensureCollection(app, FunctionalItems, func(c *core.Collection) {
		c.Fields.Add(estimateRelation(estimates))
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.SelectField{
			Name:      "source_type",
			Required:  true,
			Values:    []string{string(services.SourceCommonPattern), string(services.SourceCustom)},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "pattern_key"})
		c.Fields.Add(&core.NumberField{Name: "average_sprints"})
		c.Fields.Add(&core.NumberField{Name: "sprints"})
		c.Fields.Add(&core.TextField{Name: "assigned_resource_ids"})
		c.Fields.Add(&core.BoolField{Name: "is_deviation_flagged"})
		c.Fields.Add(&core.TextField{Name: "outcome"})
	})

	nonFunctional := ensureCollection(app, NonFunctionalItems, func(c *core.Collection) {
		c.Fields.Add(estimateRelation(estimates))
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
	})

	ensureCollection(app, Allocations, func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "non_functional_item",
			Required:      true,
			CollectionId:  nonFunctional.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "role", Required: true})
		c.Fields.Add(&core.NumberField{Name: "hours"})
	})

	ensureCollection(app, ResourceRates, func(c *core.Collection) {
		c.Fields.Add(estimateRelation(estimates))
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "role", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "type",
			Required:  true,
			Values:    []string{string(services.ResourceFTE), string(services.ResourceContractor)},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "daily_rate"})
		c.Fields.Add(&core.NumberField{Name: "hourly_rate"})
		c.Fields.Add(&core.TextField{Name: "source_key"})
		c.Fields.Add(&core.NumberField{Name: "legacy_number", OnlyInt: true})
	})

	ensureCollection(app, RoleMappings, func(c *core.Collection) {
		c.Fields.Add(estimateRelation(estimates))
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "source_role", Required: true})
		c.Fields.Add(&core.TextField{Name: "target_role"})
		c.AddIndex("idx_role_mappings_source", true, "estimate, source_role", "")
	})
}

// estimateRelation is the parent link every child of an estimate carries.
func estimateRelation(estimates *core.Collection) *core.RelationField {
	return &core.RelationField{
		Name:          "estimate",
		Required:      true,
		CollectionId:  estimates.Id,
		CascadeDelete: true,
		MaxSelect:     1,
	}
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
