package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Assignment strings look like "team-a-FTE-1:100,team-b-CTR-2:50". A segment
// without a percent means full utilization.
const (
	assignmentSeparator = ","
	percentSeparator    = ":"
)

// splitTrimmed splits s on sep, trims every part and drops the empty ones.
func splitTrimmed(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitSegment splits one "key:percent" segment into trimmed, non-empty
// tokens. The first token is the key, the second the percent; anything after
// that is ignored. A segment of separators alone yields no tokens.
func splitSegment(segment string) []string {
	return splitTrimmed(segment, percentSeparator)
}

// parsePercent reads the optional percent token of a segment. A missing or
// malformed token means 100. The result is always clamped to [0, 100].
func parsePercent(tokens []string) decimal.Decimal {
	pct := fullPercent
	if len(tokens) > 1 {
		if parsed, err := decimal.NewFromString(tokens[1]); err == nil {
			pct = parsed
		}
	}
	return ClampPercent(pct)
}

// DecodeAssignments parses a serialized assignment string. Blank input gives
// an empty mapping. Malformed percents default to 100 and segments with no
// tokens are skipped; decoding never fails.
func DecodeAssignments(s string) Assignments {
	var out Assignments
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, segment := range splitTrimmed(s, assignmentSeparator) {
		tokens := splitSegment(segment)
		if len(tokens) == 0 {
			continue
		}
		out.Set(tokens[0], parsePercent(tokens))
	}
	return out
}

// EncodeAssignments serializes a. It reports false when there is nothing to
// encode, which callers persist as "no assignments" rather than as an
// explicitly empty string.
func EncodeAssignments(a Assignments) (string, bool) {
	if a.Len() == 0 {
		return "", false
	}
	parts := make([]string, 0, a.Len())
	a.Each(func(key string, percent decimal.Decimal) {
		pct := ClampPercent(percent).RoundBank(moneyPlaces)
		parts = append(parts, strings.TrimSpace(key)+percentSeparator+pct.String())
	})
	return strings.Join(parts, assignmentSeparator), true
}
