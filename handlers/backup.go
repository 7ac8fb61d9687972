package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/collections"
	"softwareestimator/services"
)

const backupFormatVersion = 1

// Backup is the document exchanged by the backup export and import routes.
type Backup struct {
	Version    int                  `json:"version"`
	ExportedAt time.Time            `json:"exported_at"`
	Estimates  []*services.Estimate `json:"estimates"`
}

// BackupImportResult counts what an import did.
type BackupImportResult struct {
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// HandleBackupExport downloads every estimate with all of its children.
// Route: GET /api/backup/export
func HandleBackupExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimates, err := collections.LoadAllEstimates(app)
		if err != nil {
			log.Printf("backup_export: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to load estimates")
		}

		now := time.Now().UTC()
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="estimates_backup_%s.json"`, now.Format("2006-01-02")))
		return e.JSON(http.StatusOK, Backup{
			Version:    backupFormatVersion,
			ExportedAt: now,
			Estimates:  estimates,
		})
	}
}

// HandleBackupImport restores estimates from a backup document. Estimates
// whose reference already exists are skipped, so importing the same file
// twice adds nothing the second time. Ids in the file are ignored.
// Route: POST /api/backup/import
func HandleBackupImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var doc Backup
		if err := readJSON(e, &doc); err != nil {
			return e.String(http.StatusBadRequest, err.Error())
		}
		if doc.Version > backupFormatVersion {
			return e.String(http.StatusBadRequest,
				fmt.Sprintf("Unsupported backup version %d", doc.Version))
		}

		var result BackupImportResult
		for _, est := range doc.Estimates {
			if est == nil {
				continue
			}
			est.Reference = strings.TrimSpace(est.Reference)
			if est.Reference != "" {
				if _, err := collections.FindEstimateByReference(app, est.Reference); err == nil {
					result.Skipped++
					continue
				}
			}

			est.ResetIDs()
			if err := collections.SaveEstimate(app, est); err != nil {
				log.Printf("backup_import: %v", err)
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%q: %v", est.Name, err))
				continue
			}
			result.Added++
		}

		log.Printf("backup_import: added %d, skipped %d, failed %d", result.Added, result.Skipped, result.Failed)
		return e.JSON(http.StatusOK, result)
	}
}
