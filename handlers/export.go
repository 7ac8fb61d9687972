package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/collections"
	"softwareestimator/services"
)

// buildExportData loads an estimate and prices it on basis, returning the
// flattened rows every export format renders.
func buildExportData(app core.App, id string, basis services.CostBasis) (services.ExportData, *services.Estimate, error) {
	est, err := collections.LoadEstimate(app, id)
	if err != nil {
		return services.ExportData{}, nil, fmt.Errorf("estimate not found: %w", err)
	}
	totals := services.CalcEstimateTotals(est, basis)
	return services.BuildExportData(est, totals), est, nil
}

// exportFilename builds "Estimate_<title>_v<version>.<ext>".
func exportFilename(data services.ExportData, ext string) string {
	return fmt.Sprintf("Estimate_%s_v%d.%s", sanitizeFilename(data.Title), data.Version, ext)
}

// exportFormat describes one downloadable rendering of an estimate.
type exportFormat struct {
	name        string
	ext         string
	contentType string
	generate    func(services.ExportData) ([]byte, error)
}

var (
	csvExport = exportFormat{
		name:        "export_csv",
		ext:         "csv",
		contentType: "text/csv; charset=utf-8",
		generate:    services.GenerateCSV,
	}
	excelExport = exportFormat{
		name:        "export_excel",
		ext:         "xlsx",
		contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		generate:    services.GenerateExcel,
	}
	pdfExport = exportFormat{
		name:        "export_pdf",
		ext:         "pdf",
		contentType: "application/pdf",
		generate:    services.GeneratePDF,
	}
)

func handleExport(app *pocketbase.PocketBase, f exportFormat) func(*core.RequestEvent) error {
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
			log.Printf("%s: %v", f.name, err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		body, err := f.generate(data)
		if err != nil {
			log.Printf("%s: failed to generate: %v", f.name, err)
			return e.String(http.StatusInternalServerError, "Failed to generate export")
		}

		e.Response.Header().Set("Content-Type", f.contentType)
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, f.ext)))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(body)
		return err
	}
}

// HandleEstimateExportCSV downloads an estimate as CSV.
// Route: GET /api/estimates/{id}/csv
func HandleEstimateExportCSV(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleExport(app, csvExport)
}

// HandleEstimateExportExcel downloads an estimate as an Excel workbook.
// Route: GET /api/estimates/{id}/excel
func HandleEstimateExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleExport(app, excelExport)
}

// HandleEstimateExportPDF downloads an estimate as a PDF document.
// Route: GET /api/estimates/{id}/pdf
func HandleEstimateExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleExport(app, pdfExport)
}

// HandleEstimateExportJSON downloads an estimate with its computed totals.
// Route: GET /api/estimates/{id}/json
func HandleEstimateExportJSON(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		basis, err := basisFromQuery(e)
		if err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}

		data, est, err := buildExportData(app, id, basis)
		if err != nil {
			log.Printf("export_json: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, "json")))
		return e.JSON(http.StatusOK, estimateResponse{
			Estimate: est,
			Totals:   services.CalcEstimateTotals(est, basis),
		})
	}
}
