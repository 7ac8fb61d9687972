// Package commands holds the estimator's CLI subcommands, registered on the
// PocketBase root command.
package commands

import (
	"fmt"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"softwareestimator/collections"
)

// LoadLegacyMap reads a YAML document of resource key -> static number
// entries, e.g.
//
//	team-a-FTE-1: 1
//	team-b-CTR-2: 2
//
// An empty path returns an empty map.
func LoadLegacyMap(path string) (map[string]int, error) {
	out := make(map[string]int)
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy map %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse legacy map %s: %w", path, err)
	}
	for k, n := range out {
		if n <= 0 {
			return nil, fmt.Errorf("legacy map %s: %q has non-positive number %d", path, k, n)
		}
	}
	return out, nil
}

// NewMigrateAssignmentsCommand returns the "migrate-assignments" subcommand,
// which rewrites numeric resource assignments into the keyed format.
func NewMigrateAssignmentsCommand(app *pocketbase.PocketBase) *cobra.Command {
	var mapFile string

	cmd := &cobra.Command{
		Use:   "migrate-assignments",
		Short: "Rewrite legacy numeric resource assignments into resource keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := LoadLegacyMap(mapFile)
			if err != nil {
				return err
			}

			collections.Setup(app)
			stats, err := collections.MigrateLegacyAssignments(app, extra)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"scanned %d line(s), rewrote %d, dropped %d unresolved entr(ies)\n",
				stats.LinesScanned, stats.LinesRewritten, stats.EntriesDropped)
			return nil
		},
	}

	cmd.Flags().StringVar(&mapFile, "map", "", "YAML file of resource key -> legacy number entries")
	return cmd
}
