package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"ESTIMATOR_CATALOG_DIR",
		"ESTIMATOR_DEVIATION_THRESHOLD",
		"ESTIMATOR_SPRINT_LENGTH_DAYS",
		"ESTIMATOR_LEGACY_MIGRATION",
		"ESTIMATOR_LEGACY_MAP_FILE",
	} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if cfg.CatalogDir != "./catalog" {
		t.Errorf("CatalogDir = %q, want ./catalog", cfg.CatalogDir)
	}
	if !cfg.DeviationThreshold.Equal(decimal.NewFromInt(25)) {
		t.Errorf("DeviationThreshold = %s, want 25", cfg.DeviationThreshold)
	}
	if cfg.SprintLengthDays != 10 {
		t.Errorf("SprintLengthDays = %d, want 10", cfg.SprintLengthDays)
	}
	if !cfg.LegacyMigration {
		t.Error("LegacyMigration should default to true")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ESTIMATOR_CATALOG_DIR", "/etc/estimator")
	t.Setenv("ESTIMATOR_DEVIATION_THRESHOLD", "12.5")
	t.Setenv("ESTIMATOR_SPRINT_LENGTH_DAYS", "15")
	t.Setenv("ESTIMATOR_CATALOG_RELOAD_CRON", "")
	t.Setenv("ESTIMATOR_LEGACY_MIGRATION", "false")
	t.Setenv("ESTIMATOR_LEGACY_MAP_FILE", "legacy.yaml")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if cfg.CatalogDir != "/etc/estimator" {
		t.Errorf("CatalogDir = %q", cfg.CatalogDir)
	}
	if !cfg.DeviationThreshold.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("DeviationThreshold = %s, want 12.5", cfg.DeviationThreshold)
	}
	if cfg.SprintLengthDays != 15 {
		t.Errorf("SprintLengthDays = %d, want 15", cfg.SprintLengthDays)
	}
	if cfg.ReloadCron != "" {
		t.Errorf("ReloadCron = %q, want empty (disabled)", cfg.ReloadCron)
	}
	if cfg.LegacyMigration {
		t.Error("LegacyMigration should be false")
	}
	if cfg.LegacyMapFile != "legacy.yaml" {
		t.Errorf("LegacyMapFile = %q", cfg.LegacyMapFile)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"threshold not a number", "ESTIMATOR_DEVIATION_THRESHOLD", "lots"},
		{"negative threshold", "ESTIMATOR_DEVIATION_THRESHOLD", "-5"},
		{"zero sprint length", "ESTIMATOR_SPRINT_LENGTH_DAYS", "0"},
		{"sprint length not a number", "ESTIMATOR_SPRINT_LENGTH_DAYS", "ten"},
		{"migration flag", "ESTIMATOR_LEGACY_MIGRATION", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("FromEnv() with %s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}
