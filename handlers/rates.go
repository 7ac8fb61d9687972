package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/collections"
	"softwareestimator/services"
)

// HandleRateTemplateDownload serves the blank rate sheet.
// Route: GET /api/rates/template
func HandleRateTemplateDownload() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateRateTemplate()
		if err != nil {
			log.Printf("rate_template: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate template")
		}

		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", `attachment; filename="Rate_Sheet_Template.xlsx"`)
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}

// HandleRateImport validates an uploaded rate sheet (.csv or .xlsx). With
// ?commit=true and no row errors, the sheet replaces the estimate's resource
// rates and the totals are recomputed. The validation result is returned
// either way.
// Route: POST /api/estimates/{id}/rates/import
func HandleRateImport(app *pocketbase.PocketBase, s *Settings) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		est, err := collections.LoadEstimate(app, id)
		if err != nil {
			log.Printf("rate_import: %v", err)
			return e.String(http.StatusNotFound, "Estimate not found")
		}

		// Parse multipart form (max 10MB)
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return e.String(http.StatusBadRequest, "File too large or invalid form data")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return e.String(http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ParseRateSheet(file, header.Filename)
		if err != nil {
			log.Printf("rate_import: %v", err)
			return e.String(http.StatusBadRequest, err.Error())
		}

		if e.Request.URL.Query().Get("commit") != "true" {
			return e.JSON(http.StatusOK, result)
		}
		if result.ErrorRows > 0 || result.ValidRows == 0 {
			return e.JSON(http.StatusUnprocessableEntity, result)
		}

		est.ResourceRates = result.Rates
		recalculate(est, s.DeviationThreshold, services.BasisSquadRate)
		if err := collections.SaveEstimate(app, est); err != nil {
			log.Printf("rate_import: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to save rates")
		}

		log.Printf("rate_import: replaced %d rate(s) on estimate %s", len(result.Rates), est.ID)
		return e.JSON(http.StatusOK, result)
	}
}

// HandleRateErrorReport downloads the posted validation errors as Excel.
// Route: POST /api/rates/errors
func HandleRateErrorReport() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errors []services.ValidationError
		if err := readJSON(e, &errors); err != nil {
			return e.String(http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(errors)
		if err != nil {
			log.Printf("error_report: %v", err)
			return e.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("Rate_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}
