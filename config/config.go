// Package config reads estimator settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"softwareestimator/services"
)

// Config holds the settings the server reads at startup.
type Config struct {
	// CatalogDir holds the reference-data catalog files.
	CatalogDir string
	// DeviationThreshold is the percent away from a pattern's average
	// at which a line is flagged.
	DeviationThreshold decimal.Decimal
	SprintLengthDays   int
	// ReloadCron is the schedule catalogs are re-read on. Empty disables it.
	ReloadCron string
	// LegacyMigration runs the assignment-format migration on startup.
	LegacyMigration bool
	// LegacyMapFile is an optional YAML file of resource key -> number
	// entries merged into the migration lookup.
	LegacyMapFile string
}

const (
	defaultCatalogDir = "./catalog"
	defaultReloadCron = "*/5 * * * *"
)

// Load reads an optional .env file and then the ESTIMATOR_* variables.
// Unset variables take their defaults; malformed ones are an error.
func Load() (Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		CatalogDir:         defaultCatalogDir,
		DeviationThreshold: services.DefaultDeviationThreshold,
		SprintLengthDays:   services.DefaultSprintLengthDays,
		ReloadCron:         defaultReloadCron,
		LegacyMigration:    true,
	}

	if v := os.Getenv("ESTIMATOR_CATALOG_DIR"); v != "" {
		cfg.CatalogDir = v
	}

	if v := os.Getenv("ESTIMATOR_DEVIATION_THRESHOLD"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return Config{}, fmt.Errorf("invalid ESTIMATOR_DEVIATION_THRESHOLD %q", v)
		}
		cfg.DeviationThreshold = d
	}

	if v := os.Getenv("ESTIMATOR_SPRINT_LENGTH_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid ESTIMATOR_SPRINT_LENGTH_DAYS %q", v)
		}
		cfg.SprintLengthDays = n
	}

	if v, ok := os.LookupEnv("ESTIMATOR_CATALOG_RELOAD_CRON"); ok {
		cfg.ReloadCron = v
	}

	if v := os.Getenv("ESTIMATOR_LEGACY_MIGRATION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ESTIMATOR_LEGACY_MIGRATION %q", v)
		}
		cfg.LegacyMigration = b
	}

	cfg.LegacyMapFile = os.Getenv("ESTIMATOR_LEGACY_MAP_FILE")

	return cfg, nil
}
