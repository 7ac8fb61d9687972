package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"softwareestimator/collections"
	"softwareestimator/services"
)

// EstimateSummary is one row of the estimate list.
type EstimateSummary struct {
	ID                   string          `json:"id"`
	Reference            string          `json:"reference"`
	Name                 string          `json:"name"`
	Client               string          `json:"client"`
	TeamID               string          `json:"team_id,omitempty"`
	Version              int             `json:"version"`
	Total                decimal.Decimal `json:"total"`
	FunctionalItemCount  int             `json:"functional_item_count"`
	HasDeviations        bool            `json:"has_deviations"`
	ClonedFromEstimateID string          `json:"cloned_from_estimate_id,omitempty"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// HandleEstimateList returns every estimate, newest first.
// Route: GET /api/estimates
func HandleEstimateList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimates, err := collections.LoadAllEstimates(app)
		if err != nil {
			log.Printf("estimate_list: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to load estimates")
		}

		out := make([]EstimateSummary, 0, len(estimates))
		for _, est := range estimates {
			out = append(out, EstimateSummary{
				ID:                   est.ID,
				Reference:            est.Reference,
				Name:                 est.Name,
				Client:               est.Client,
				TeamID:               est.TeamID,
				Version:              est.Version,
				Total:                est.Total,
				FunctionalItemCount:  len(est.FunctionalItems),
				HasDeviations:        est.HasDeviations(),
				ClonedFromEstimateID: est.ClonedFromEstimateID,
				UpdatedAt:            est.UpdatedAt,
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}

type createEstimateRequest struct {
	Name               string          `json:"name"`
	Client             string          `json:"client"`
	TeamID             string          `json:"team_id"`
	PreparedBy         string          `json:"prepared_by"`
	ProblemStatement   string          `json:"problem_statement"`
	ContingencyPercent decimal.Decimal `json:"contingency_percent"`
	PatternKeys        []string        `json:"pattern_keys"`
}

// HandleEstimateCreate creates an estimate pre-filled from the reference
// catalogs: the default rate card, a zero-hour item per baseline supporting
// activity and one line per requested pattern.
// Route: POST /api/estimates
func HandleEstimateCreate(app *pocketbase.PocketBase, s *Settings) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req createEstimateRequest
		if err := readJSON(e, &req); err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			return e.String(http.StatusBadRequest, "Estimate name is required")
		}

		est := s.Reference.NewEstimateFromCatalogs(req.Name, strings.TrimSpace(req.Client))
		est.TeamID = strings.TrimSpace(req.TeamID)
		est.PreparedBy = strings.TrimSpace(req.PreparedBy)
		est.ProblemStatement = req.ProblemStatement
		est.ContingencyPercent = req.ContingencyPercent
		if s.SprintLengthDays > 0 {
			est.SprintLengthDays = s.SprintLengthDays
		}

		for _, key := range req.PatternKeys {
			p, ok := s.Reference.FindPattern(key)
			if !ok {
				return e.String(http.StatusBadRequest, "Unknown pattern: "+key)
			}
			est.FunctionalItems = append(est.FunctionalItems, services.NewLineFromPattern(p))
		}

		totals := recalculate(est, s.DeviationThreshold, services.BasisSquadRate)
		if err := collections.SaveEstimate(app, est); err != nil {
			log.Printf("estimate_create: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to create estimate")
		}

		log.Printf("estimate_create: created %q (%s)", est.Name, est.ID)
		return e.JSON(http.StatusCreated, estimateResponse{Estimate: est, Totals: totals})
	}
}

// HandleEstimateGet returns an estimate with totals computed on the
// requested basis.
// Route: GET /api/estimates/{id}?basis=squad|assignment
func HandleEstimateGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		basis, err := basisFromQuery(e)
		if err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}

		est, err := collections.LoadEstimate(app, id)
		if err != nil {
			log.Printf("estimate_get: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		return e.JSON(http.StatusOK, estimateResponse{
			Estimate: est,
			Totals:   services.CalcEstimateTotals(est, basis),
		})
	}
}

// HandleEstimateUpdate replaces the editable fields and children of an
// estimate. Children carrying a known id are updated in place; the rest are
// created, and stored children missing from the body are deleted.
// Route: PUT /api/estimates/{id}?basis=squad|assignment
func HandleEstimateUpdate(app *pocketbase.PocketBase, s *Settings) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		basis, err := basisFromQuery(e)
		if err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}

		est, err := collections.LoadEstimate(app, id)
		if err != nil {
			log.Printf("estimate_update: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		var in services.Estimate
		if err := readJSON(e, &in); err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return e.String(http.StatusBadRequest, "Estimate name is required")
		}

		est.Name = in.Name
		est.Client = in.Client
		est.TeamID = in.TeamID
		est.ProblemStatement = in.ProblemStatement
		est.JiraIdeaURL = in.JiraIdeaURL
		est.JiraInitiativeURL = in.JiraInitiativeURL
		est.PreparedBy = in.PreparedBy
		if in.SprintLengthDays > 0 {
			est.SprintLengthDays = in.SprintLengthDays
		}
		est.ContingencyPercent = in.ContingencyPercent
		est.FunctionalItems = in.FunctionalItems
		est.NonFunctionalItems = in.NonFunctionalItems
		est.ResourceRates = in.ResourceRates
		est.RoleMappings = in.RoleMappings

		totals := recalculate(est, s.DeviationThreshold, basis)
		if err := collections.SaveEstimate(app, est); err != nil {
			log.Printf("estimate_update: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to save estimate")
		}

		return e.JSON(http.StatusOK, estimateResponse{Estimate: est, Totals: totals})
	}
}

// HandleEstimateDelete removes an estimate and all of its children.
// Route: DELETE /api/estimates/{id}
func HandleEstimateDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if _, err := app.FindRecordById(collections.Estimates, id); err != nil {
			return e.String(http.StatusNotFound, "Estimate not found")
		}
		if err := collections.DeleteEstimate(app, id); err != nil {
			log.Printf("estimate_delete: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to delete estimate")
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleEstimateRecalculate refreshes deviation flags and persists the
// totals snapshot on the requested basis.
// Route: POST /api/estimates/{id}/recalculate?basis=squad|assignment
func HandleEstimateRecalculate(app *pocketbase.PocketBase, s *Settings) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		basis, err := basisFromQuery(e)
		if err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}

		est, err := collections.LoadEstimate(app, id)
		if err != nil {
			log.Printf("estimate_recalculate: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		totals := recalculate(est, s.DeviationThreshold, basis)
		if err := collections.SaveEstimate(app, est); err != nil {
			log.Printf("estimate_recalculate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to save estimate")
		}
		return e.JSON(http.StatusOK, estimateResponse{Estimate: est, Totals: totals})
	}
}

// HandleEstimateClone saves a deep copy of an estimate as its next version.
// Route: POST /api/estimates/{id}/clone
func HandleEstimateClone(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		est, err := collections.LoadEstimate(app, id)
		if err != nil {
			log.Printf("estimate_clone: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		clone := est.CloneAsNewVersion()
		if err := collections.SaveEstimate(app, clone); err != nil {
			log.Printf("estimate_clone: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to clone estimate")
		}

		log.Printf("estimate_clone: %s -> %s (v%d)", est.ID, clone.ID, clone.Version)
		return e.JSON(http.StatusCreated, estimateResponse{
			Estimate: clone,
			Totals:   services.CalcEstimateTotals(clone, services.BasisSquadRate),
		})
	}
}
