package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/services"
)

// HandlePatternList returns the common pattern catalog.
// Route: GET /api/patterns
func HandlePatternList(ref *services.ReferenceData) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, ref.Patterns.Snapshot())
	}
}

// HandleSupportingActivityList returns the supporting activity catalog.
// Route: GET /api/supporting-activities
func HandleSupportingActivityList(ref *services.ReferenceData) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, ref.Supporting.Snapshot())
	}
}

// HandleTeamList returns the active teams, or every team with ?all=true.
// Route: GET /api/teams
func HandleTeamList(ref *services.ReferenceData) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if e.Request.URL.Query().Get("all") == "true" {
			return e.JSON(http.StatusOK, ref.Teams.Snapshot())
		}
		teams := ref.ActiveTeams()
		if teams == nil {
			teams = []services.Team{}
		}
		return e.JSON(http.StatusOK, teams)
	}
}

type teamValidateRequest struct {
	Requirements map[string]int `json:"requirements"`
}

// HandleTeamValidate checks whether a team can staff the posted role
// headcounts.
// Route: POST /api/teams/{id}/validate
func HandleTeamValidate(ref *services.ReferenceData) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req teamValidateRequest
		if err := readJSON(e, &req); err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}
		result := ref.ValidateResourceAllocation(e.Request.PathValue("id"), req.Requirements)
		return e.JSON(http.StatusOK, result)
	}
}

type reloadResponse struct {
	Patterns             int    `json:"patterns"`
	SupportingActivities int    `json:"supporting_activities"`
	Teams                int    `json:"teams"`
	RoleRates            int    `json:"role_rates"`
	Error                string `json:"error,omitempty"`
}

// HandleConfigReload re-reads every catalog file. Catalogs that fail to load
// keep their previous contents; the response reports the error alongside
// the current counts.
// Route: POST /api/config/reload
func HandleConfigReload(ref *services.ReferenceData) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		err := ref.ReloadAll()
		resp := reloadResponse{
			Patterns:             len(ref.Patterns.Snapshot()),
			SupportingActivities: len(ref.Supporting.Snapshot()),
			Teams:                len(ref.Teams.Snapshot()),
			RoleRates:            len(ref.RoleRates.Snapshot()),
		}
		if err != nil {
			log.Printf("catalog: reload failed: %v", err)
			resp.Error = err.Error()
			return e.JSON(http.StatusInternalServerError, resp)
		}
		log.Printf("catalog: reloaded %d pattern(s), %d activit(ies), %d team(s), %d rate(s)",
			resp.Patterns, resp.SupportingActivities, resp.Teams, resp.RoleRates)
		return e.JSON(http.StatusOK, resp)
	}
}
