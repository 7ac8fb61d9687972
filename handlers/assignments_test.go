package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"softwareestimator/collections"
	"softwareestimator/testhelpers"
)

func assignmentsRequestFor(t *testing.T, estimateID, itemID string, body any) *http.Request {
	t.Helper()
	req := jsonRequest(t, http.MethodPut,
		"/api/estimates/"+estimateID+"/functional-items/"+itemID+"/assignments", body)
	req.SetPathValue("id", estimateID)
	req.SetPathValue("itemId", itemID)
	return req
}

func TestHandleAssignmentsUpdate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	settings, _ := newTestSettings(t)
	est := saveTestEstimate(t, app, "Portal Rebuild")
	login := est.FunctionalItems[0]

	body := map[string]any{
		"assignments": []map[string]any{
			{"key": "team-a-FTE-1", "percent": 50},
			{"key": "team-b-CTR-2"},
		},
	}
	req := assignmentsRequestFor(t, est.ID, login.ID, body)
	rec := httptest.NewRecorder()
	if err := HandleAssignmentsUpdate(app, settings)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp assignmentsResponse
	decodeJSON(t, rec, &resp)
	if resp.AssignedResourceIDs != "team-a-FTE-1:50,team-b-CTR-2:100" {
		t.Errorf("assigned = %q", resp.AssignedResourceIDs)
	}
	// 2 sprints x 10 days: 1000 x 20 x 0.5 + 500 x 20.
	if !resp.Cost.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("line cost = %s, want 20000", resp.Cost)
	}
	if len(resp.Totals.FunctionalLines) != 2 ||
		resp.Totals.FunctionalLines[0].ID != login.ID ||
		!resp.Totals.FunctionalLines[0].Cost.Equal(resp.Cost) {
		t.Errorf("line cost %s does not match totals lines %+v", resp.Cost, resp.Totals.FunctionalLines)
	}
	// Reports has no assignments; 20000 + 700, plus 10%.
	if !resp.Totals.Total.Equal(decimal.NewFromInt(22770)) {
		t.Errorf("Total = %s, want 22770", resp.Totals.Total)
	}

	stored, err := collections.LoadEstimate(app, est.ID)
	if err != nil {
		t.Fatalf("LoadEstimate() error: %v", err)
	}
	if stored.FunctionalItems[0].AssignedResourceIDs != "team-a-FTE-1:50,team-b-CTR-2:100" {
		t.Errorf("stored assigned = %q", stored.FunctionalItems[0].AssignedResourceIDs)
	}
	if !stored.Total.Equal(decimal.NewFromInt(22770)) {
		t.Errorf("stored total = %s, want 22770", stored.Total)
	}
}

func TestHandleAssignmentsUpdate_DuplicateKeysAndClamp(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	settings, _ := newTestSettings(t)
	est := saveTestEstimate(t, app, "Portal Rebuild")
	login := est.FunctionalItems[0]

	body := map[string]any{
		"assignments": []map[string]any{
			{"key": "team-a-FTE-1", "percent": 10},
			{"key": "TEAM-A-FTE-1", "percent": 250},
		},
	}
	req := assignmentsRequestFor(t, est.ID, login.ID, body)
	rec := httptest.NewRecorder()
	if err := HandleAssignmentsUpdate(app, settings)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp assignmentsResponse
	decodeJSON(t, rec, &resp)
	if resp.AssignedResourceIDs != "team-a-FTE-1:100" {
		t.Errorf("assigned = %q, want team-a-FTE-1:100", resp.AssignedResourceIDs)
	}
}

func TestHandleAssignmentsUpdate_ClearsAssignments(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	settings, _ := newTestSettings(t)
	est := saveTestEstimate(t, app, "Portal Rebuild")
	login := est.FunctionalItems[0]

	req := assignmentsRequestFor(t, est.ID, login.ID, map[string]any{"assignments": []any{}})
	rec := httptest.NewRecorder()
	if err := HandleAssignmentsUpdate(app, settings)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	stored, _ := collections.LoadEstimate(app, est.ID)
	if stored.FunctionalItems[0].AssignedResourceIDs != "" {
		t.Errorf("expected no assignments, got %q", stored.FunctionalItems[0].AssignedResourceIDs)
	}
}

func TestHandleAssignmentsUpdate_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	settings, _ := newTestSettings(t)
	est := saveTestEstimate(t, app, "Portal Rebuild")
	loginID := est.FunctionalItems[0].ID

	tests := []struct {
		name       string
		estimateID string
		itemID     string
		body       any
		status     int
	}{
		{"unknown estimate", "nonexistent", loginID, map[string]any{}, http.StatusNotFound},
		{"unknown item", est.ID, "nonexistent", map[string]any{}, http.StatusNotFound},
		{"invalid json", est.ID, loginID, "{", http.StatusBadRequest},
		{"blank key", est.ID, loginID, map[string]any{
			"assignments": []map[string]any{{"key": "  ", "percent": 10}},
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := assignmentsRequestFor(t, tt.estimateID, tt.itemID, tt.body)
			rec := httptest.NewRecorder()
			if err := HandleAssignmentsUpdate(app, settings)(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
