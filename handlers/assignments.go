package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"softwareestimator/collections"
	"softwareestimator/services"
)

type assignmentEntry struct {
	Key     string           `json:"key"`
	Percent *decimal.Decimal `json:"percent"`
}

type assignmentsRequest struct {
	Assignments []assignmentEntry `json:"assignments"`
}

type assignmentsResponse struct {
	ItemID              string                  `json:"item_id"`
	AssignedResourceIDs string                  `json:"assigned_resource_ids"`
	Cost                decimal.Decimal         `json:"cost"`
	Totals              services.EstimateTotals `json:"totals"`
}

// HandleAssignmentsUpdate replaces the named-resource assignments of one
// functional line. Entries keep their order; a repeated key (in any casing)
// overwrites the earlier percent, and a missing percent means 100.
// Route: PUT /api/estimates/{id}/functional-items/{itemId}/assignments
func HandleAssignmentsUpdate(app *pocketbase.PocketBase, s *Settings) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		itemID := e.Request.PathValue("itemId")

		est, err := collections.LoadEstimate(app, id)
		if err != nil {
			log.Printf("assignments: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		var line *services.FunctionalLineItem
		for _, f := range est.FunctionalItems {
			if f.ID == itemID {
				line = f
				break
			}
		}
		if line == nil {
			return e.String(http.StatusNotFound, "Functional item not found")
		}

		var req assignmentsRequest
		if err := readJSON(e, &req); err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}

		var a services.Assignments
		for _, entry := range req.Assignments {
			key := strings.TrimSpace(entry.Key)
			if key == "" {
				return e.String(http.StatusBadRequest, "Assignment key is required")
			}
			pct := decimal.NewFromInt(100)
			if entry.Percent != nil {
				pct = *entry.Percent
			}
			a.Set(key, services.ClampPercent(pct))
		}
		line.SetAssignedResources(a)

		totals := recalculate(est, s.DeviationThreshold, services.BasisAssignment)
		if err := collections.SaveEstimate(app, est); err != nil {
			log.Printf("assignments: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to save assignments")
		}

		cost := decimal.Zero
		for _, lc := range totals.FunctionalLines {
			if lc.ID == line.ID {
				cost = lc.Cost
				break
			}
		}

		return e.JSON(http.StatusOK, assignmentsResponse{
			ItemID:              line.ID,
			AssignedResourceIDs: line.AssignedResourceIDs,
			Cost:                cost,
			Totals:              totals,
		})
	}
}
