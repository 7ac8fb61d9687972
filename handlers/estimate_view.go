package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/services"
	"softwareestimator/templates"
)

// HandleEstimateView renders the read-only HTML summary of an estimate.
// Route: GET /estimates/{id}?basis=squad|assignment
func HandleEstimateView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if id == "" {
			return e.String(http.StatusBadRequest, "Missing estimate ID")
		}
		basis, err := basisFromQuery(e)
		if err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}

		data, _, err := buildExportData(app, id, basis)
		if err != nil {
			log.Printf("estimate_view: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		other := services.BasisAssignment
		if basis == services.BasisAssignment {
			other = services.BasisSquadRate
		}

		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		component := templates.EstimateSummaryPage(templates.EstimateSummaryData{
			EstimateID: id,
			Export:     data,
			OtherBasis: other,
		})
		return component.Render(e.Request.Context(), e.Response)
	}
}
