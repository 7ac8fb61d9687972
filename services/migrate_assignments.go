package services

import (
	"sort"
	"strconv"
)

// MigrationStats counts what a legacy assignment migration changed.
type MigrationStats struct {
	LinesScanned   int
	LinesRewritten int
	EntriesDropped int
}

// MigrateAssignments rewrites the old numeric assignment format ("1,2" or
// "1:100,2:50", where each number is a static resource number) into the keyed
// format, in place. numberToKey maps a resource key to its static number.
//
// Numbers with no key are dropped. Segments whose first token is not an
// integer are taken to be keys already, so running the migration twice is a
// no-op. Nothing here returns an error: one bad row must not stop the rest of
// the collection from migrating.
func MigrateAssignments(estimates []*Estimate, numberToKey map[string]int) MigrationStats {
	var stats MigrationStats
	keyByNumber := invertNumberMap(numberToKey)

	for _, est := range estimates {
		if est == nil {
			continue
		}
		for _, line := range est.FunctionalItems {
			if line == nil || isBlank(line.AssignedResourceIDs) {
				continue
			}
			stats.LinesScanned++

			var rebuilt Assignments
			for _, segment := range splitTrimmed(line.AssignedResourceIDs, assignmentSeparator) {
				tokens := splitSegment(segment)
				if len(tokens) == 0 {
					continue
				}
				if n, err := strconv.Atoi(tokens[0]); err == nil {
					key, ok := keyByNumber[n]
					if !ok {
						stats.EntriesDropped++
						continue
					}
					rebuilt.Set(key, parsePercent(tokens))
					continue
				}
				rebuilt.Set(tokens[0], parsePercent(tokens))
			}

			before := line.AssignedResourceIDs
			line.SetAssignedResources(rebuilt)
			if line.AssignedResourceIDs != before {
				stats.LinesRewritten++
			}
		}
	}
	return stats
}

// invertNumberMap builds number -> key. Keys are visited in sorted order so
// that when two keys share a number the outcome does not depend on map
// iteration order; the last key visited wins.
func invertNumberMap(numberToKey map[string]int) map[int]string {
	keys := make([]string, 0, len(numberToKey))
	for k := range numberToKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		fi, fj := foldKey(keys[i]), foldKey(keys[j])
		if fi != fj {
			return fi < fj
		}
		return keys[i] < keys[j]
	})

	out := make(map[int]string, len(keys))
	for _, k := range keys {
		out[numberToKey[k]] = k
	}
	return out
}

// LegacyNumberMap collects the static numbers carried by resource rates into
// the key -> number form MigrateAssignments takes. Rates without a source key
// or a positive number are ignored.
func LegacyNumberMap(rates []ResourceRate) map[string]int {
	out := make(map[string]int)
	for _, r := range rates {
		if r.SourceKey == "" || r.LegacyNumber <= 0 {
			continue
		}
		out[r.SourceKey] = r.LegacyNumber
	}
	return out
}
