package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"softwareestimator/collections"
	"softwareestimator/services"
	"softwareestimator/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

const testPatterns = `version: 1
patterns:
  - key: auth-login
    title: Single sign-on login
    averageSprints: 1.5
  - key: dashboard
    title: Customer dashboard
    averageSprints: 2
`

const testSupporting = `version: 1
activities:
  - key: qa
    title: Quality assurance
    baseline: true
    defaultAllocations:
      - role: QA
        hours: 40
  - key: security-review
    title: Security review
    defaultAllocations:
      - role: Security Engineer
        hours: 16
`

const testTeams = `version: 1
teams:
  - id: team-a
    name: Platform Squad
    roles:
      - role: Developer
        count: 2
        employmentType: FullTime
  - id: team-old
    name: Retired Squad
    active: false
    roles:
      - role: Developer
        count: 1
`

const testRoleRates = `version: 1
rates:
  - role: Developer
    employmentType: FullTime
    dailyRate: 1000
  - role: Tester
    employmentType: Contractor
    dailyRate: 500
    hourlyRate: 70
`

// newTestSettings loads the test catalogs from a temporary directory.
func newTestSettings(t *testing.T) (*Settings, string) {
	t.Helper()

	dir := t.TempDir()
	testhelpers.WriteCatalogFile(t, dir, services.PatternsFile, testPatterns)
	testhelpers.WriteCatalogFile(t, dir, services.SupportingActivitiesFile, testSupporting)
	testhelpers.WriteCatalogFile(t, dir, services.TeamsFile, testTeams)
	testhelpers.WriteCatalogFile(t, dir, services.RoleRatesFile, testRoleRates)

	ref := services.NewReferenceData(dir)
	if err := ref.ReloadAll(); err != nil {
		t.Fatalf("failed to load test catalogs: %v", err)
	}
	return &Settings{
		Reference:          ref,
		DeviationThreshold: services.DefaultDeviationThreshold,
		SprintLengthDays:   services.DefaultSprintLengthDays,
	}, dir
}

// jsonRequest builds a request with body marshalled as JSON. A string body
// is sent verbatim.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var r io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a file upload under the "file" form field.
func multipartRequest(t *testing.T, target, fileName string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// decodeJSON unmarshals a recorded response body into dst.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// saveTestEstimate stores a priced estimate with one pattern line, one
// custom line, a non-functional item and two rates.
func saveTestEstimate(t *testing.T, app *pocketbase.PocketBase, name string) *services.Estimate {
	t.Helper()

	avg := decimal.NewFromInt(1)
	e := services.NewEstimate(name, "Acme")
	e.ContingencyPercent = decimal.NewFromInt(10)
	e.ResourceRates = []services.ResourceRate{
		{Role: "Developer", Type: services.ResourceFTE, DailyRate: decimal.NewFromInt(1000), SourceKey: "team-a-FTE-1"},
		{Role: "Tester", Type: services.ResourceContractor, DailyRate: decimal.NewFromInt(500), HourlyRate: decimal.NewFromInt(70), SourceKey: "team-b-CTR-2"},
	}
	e.FunctionalItems = []*services.FunctionalLineItem{
		{
			Title:          "Login",
			SourceType:     services.SourceCommonPattern,
			PatternKey:     "auth-login",
			AverageSprints: &avg,
			Sprints:        decimal.NewFromInt(2),
		},
		{Title: "Reports", SourceType: services.SourceCustom, Sprints: decimal.NewFromInt(1)},
	}
	e.NonFunctionalItems = []*services.NonFunctionalItem{
		{Title: "Testing", Allocations: []services.ResourceAllocation{{Role: "Tester", Hours: decimal.NewFromInt(10)}}},
	}

	if err := collections.SaveEstimate(app, e); err != nil {
		t.Fatalf("failed to save test estimate: %v", err)
	}
	return e
}
