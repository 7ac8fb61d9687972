package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"softwareestimator/collections"
	"softwareestimator/commands"
	"softwareestimator/config"
	"softwareestimator/handlers"
	"softwareestimator/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ref := services.NewReferenceData(cfg.CatalogDir)
	if err := ref.ReloadAll(); err != nil {
		log.Printf("Warning: catalog load failed: %v", err)
	}
	settings := &handlers.Settings{
		Reference:          ref,
		DeviationThreshold: cfg.DeviationThreshold,
		SprintLengthDays:   cfg.SprintLengthDays,
	}

	app := pocketbase.New()
	app.RootCmd.AddCommand(commands.NewMigrateAssignmentsCommand(app))

	// Create collections, seed data and upgrade legacy assignments on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if cfg.LegacyMigration {
			extra, err := commands.LoadLegacyMap(cfg.LegacyMapFile)
			if err != nil {
				log.Printf("Warning: legacy map not loaded: %v", err)
			}
			stats, err := collections.MigrateLegacyAssignments(app, extra)
			if err != nil {
				log.Printf("Warning: assignment migration failed: %v", err)
			} else if stats.LinesRewritten > 0 || stats.EntriesDropped > 0 {
				log.Printf("assignment migration: rewrote %d line(s), dropped %d unresolved entr(ies)",
					stats.LinesRewritten, stats.EntriesDropped)
			}
		}
		return se.Next()
	})

	if cfg.ReloadCron != "" {
		app.Cron().MustAdd("reload-catalogs", cfg.ReloadCron, func() {
			if err := ref.ReloadAll(); err != nil {
				log.Printf("Warning: scheduled catalog reload failed: %v", err)
			}
		})
	}

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		// ── Reference catalogs ───────────────────────────────────
		se.Router.GET("/api/patterns", handlers.HandlePatternList(ref))
		se.Router.GET("/api/supporting-activities", handlers.HandleSupportingActivityList(ref))
		se.Router.GET("/api/teams", handlers.HandleTeamList(ref))
		se.Router.POST("/api/teams/{id}/validate", handlers.HandleTeamValidate(ref))
		se.Router.POST("/api/config/reload", handlers.HandleConfigReload(ref))

		// ── Estimate CRUD ────────────────────────────────────────
		se.Router.GET("/api/estimates", handlers.HandleEstimateList(app))
		se.Router.POST("/api/estimates", handlers.HandleEstimateCreate(app, settings))
		se.Router.GET("/api/estimates/{id}", handlers.HandleEstimateGet(app))
		se.Router.PUT("/api/estimates/{id}", handlers.HandleEstimateUpdate(app, settings))
		se.Router.DELETE("/api/estimates/{id}", handlers.HandleEstimateDelete(app))
		se.Router.POST("/api/estimates/{id}/recalculate", handlers.HandleEstimateRecalculate(app, settings))
		se.Router.POST("/api/estimates/{id}/clone", handlers.HandleEstimateClone(app))

		// ── Named-resource assignments ───────────────────────────
		se.Router.PUT("/api/estimates/{id}/functional-items/{itemId}/assignments",
			handlers.HandleAssignmentsUpdate(app, settings))

		// ── Rate sheets ──────────────────────────────────────────
		se.Router.GET("/api/rates/template", handlers.HandleRateTemplateDownload())
		se.Router.POST("/api/rates/errors", handlers.HandleRateErrorReport())
		se.Router.POST("/api/estimates/{id}/rates/import", handlers.HandleRateImport(app, settings))

		// ── Exports ──────────────────────────────────────────────
		se.Router.GET("/api/estimates/{id}/csv", handlers.HandleEstimateExportCSV(app))
		se.Router.GET("/api/estimates/{id}/excel", handlers.HandleEstimateExportExcel(app))
		se.Router.GET("/api/estimates/{id}/pdf", handlers.HandleEstimateExportPDF(app))
		se.Router.GET("/api/estimates/{id}/json", handlers.HandleEstimateExportJSON(app))

		// ── Backup ───────────────────────────────────────────────
		se.Router.GET("/api/backup/export", handlers.HandleBackupExport(app))
		se.Router.POST("/api/backup/import", handlers.HandleBackupImport(app))

		// ── HTML summary ─────────────────────────────────────────
		se.Router.GET("/estimates/{id}", handlers.HandleEstimateView(app))

		// Redirect home to the estimate list
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/api/estimates")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
