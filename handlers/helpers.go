package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"softwareestimator/services"
)

// Settings carries the server-wide options estimate handlers need.
type Settings struct {
	Reference          *services.ReferenceData
	DeviationThreshold decimal.Decimal
	SprintLengthDays   int
}

// estimateResponse is the JSON shape returned for a single estimate.
type estimateResponse struct {
	Estimate *services.Estimate      `json:"estimate"`
	Totals   services.EstimateTotals `json:"totals"`
}

// readJSON decodes the request body into dst.
func readJSON(e *core.RequestEvent, dst any) error {
	if e.Request.Body == nil {
		return fmt.Errorf("empty request body")
	}
	if err := json.NewDecoder(e.Request.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// basisFromQuery reads the ?basis= parameter; absent means squad rate.
func basisFromQuery(e *core.RequestEvent) (services.CostBasis, error) {
	return services.ParseCostBasis(e.Request.URL.Query().Get("basis"))
}

// recalculate refreshes deviation flags and the persisted totals snapshot of
// est on the given basis.
func recalculate(est *services.Estimate, threshold decimal.Decimal, basis services.CostBasis) services.EstimateTotals {
	services.RefreshDeviationFlags(est, threshold)
	totals := services.CalcEstimateTotals(est, basis)
	services.ApplyTotals(est, totals)
	return totals
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}
