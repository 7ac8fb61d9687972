package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ── Common patterns ─────────────────────────────────────────────────────

// CommonPattern is a reusable functional line with its historical average
// effort. The average is the baseline for deviation checks.
type CommonPattern struct {
	Key            string          `json:"key"`
	Title          string          `json:"title"`
	AverageSprints decimal.Decimal `json:"average_sprints"`
	Notes          string          `json:"notes,omitempty"`
}

type patternFile struct {
	Version  int `yaml:"version"`
	Patterns []struct {
		Key            string  `yaml:"key"`
		Title          string  `yaml:"title"`
		AverageSprints float64 `yaml:"averageSprints"`
		Notes          string  `yaml:"notes"`
	} `yaml:"patterns"`
}

func parsePatterns(data []byte) ([]CommonPattern, error) {
	var root patternFile
	if err := unmarshalRoot(data, &root); err != nil {
		return nil, err
	}
	out := make([]CommonPattern, 0, len(root.Patterns))
	for _, p := range root.Patterns {
		out = append(out, CommonPattern{
			Key:            p.Key,
			Title:          p.Title,
			AverageSprints: decimal.NewFromFloat(p.AverageSprints),
			Notes:          p.Notes,
		})
	}
	return out, nil
}

// FindPattern looks a pattern up by key, ignoring case.
func (r *ReferenceData) FindPattern(key string) (CommonPattern, bool) {
	return r.Patterns.Find(key, func(p CommonPattern) string { return p.Key })
}

// NewLineFromPattern starts a functional line from a catalog pattern. The
// line's sprints default to the pattern average.
func NewLineFromPattern(p CommonPattern) *FunctionalLineItem {
	avg := p.AverageSprints
	return &FunctionalLineItem{
		Title:          p.Title,
		SourceType:     SourceCommonPattern,
		PatternKey:     p.Key,
		AverageSprints: &avg,
		Sprints:        avg,
	}
}

// ── Supporting activities ───────────────────────────────────────────────

type SupportAllocation struct {
	Role  string          `json:"role"`
	Hours decimal.Decimal `json:"hours"`
}

// SupportingActivity is a non-functional work template. Baseline activities
// are added to every new estimate.
type SupportingActivity struct {
	Key                          string              `json:"key"`
	Title                        string              `json:"title"`
	SuggestedPercentOfFunctional *decimal.Decimal    `json:"suggested_percent_of_functional,omitempty"`
	DefaultAllocations           []SupportAllocation `json:"default_allocations"`
	Notes                        string              `json:"notes,omitempty"`
	Baseline                     bool                `json:"baseline"`
}

type supportingFile struct {
	Version    int `yaml:"version"`
	Activities []struct {
		Key                          string   `yaml:"key"`
		Title                        string   `yaml:"title"`
		SuggestedPercentOfFunctional *float64 `yaml:"suggestedPercentOfFunctional"`
		DefaultAllocations           []struct {
			Role  string  `yaml:"role"`
			Hours float64 `yaml:"hours"`
		} `yaml:"defaultAllocations"`
		Notes    string `yaml:"notes"`
		Baseline bool   `yaml:"baseline"`
	} `yaml:"activities"`
}

func parseSupportingActivities(data []byte) ([]SupportingActivity, error) {
	var root supportingFile
	if err := unmarshalRoot(data, &root); err != nil {
		return nil, err
	}
	out := make([]SupportingActivity, 0, len(root.Activities))
	for _, a := range root.Activities {
		act := SupportingActivity{
			Key:      a.Key,
			Title:    a.Title,
			Notes:    a.Notes,
			Baseline: a.Baseline,
		}
		if a.SuggestedPercentOfFunctional != nil {
			pct := decimal.NewFromFloat(*a.SuggestedPercentOfFunctional)
			act.SuggestedPercentOfFunctional = &pct
		}
		for _, da := range a.DefaultAllocations {
			act.DefaultAllocations = append(act.DefaultAllocations, SupportAllocation{
				Role:  da.Role,
				Hours: decimal.NewFromFloat(da.Hours),
			})
		}
		out = append(out, act)
	}
	return out, nil
}

// FindSupportingActivity looks an activity up by key, ignoring case.
func (r *ReferenceData) FindSupportingActivity(key string) (SupportingActivity, bool) {
	return r.Supporting.Find(key, func(a SupportingActivity) string { return a.Key })
}

// ── Default role rates ──────────────────────────────────────────────────

// RoleRateEntry is a default rate card entry copied onto new estimates.
type RoleRateEntry struct {
	Role           string          `json:"role"`
	EmploymentType string          `json:"employment_type"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
}

type roleRatesFile struct {
	Version int `yaml:"version"`
	Rates   []struct {
		Role           string  `yaml:"role"`
		EmploymentType string  `yaml:"employmentType"`
		DailyRate      float64 `yaml:"dailyRate"`
		HourlyRate     float64 `yaml:"hourlyRate"`
	} `yaml:"rates"`
}

func parseRoleRates(data []byte) ([]RoleRateEntry, error) {
	var root roleRatesFile
	if err := unmarshalRoot(data, &root); err != nil {
		return nil, err
	}
	out := make([]RoleRateEntry, 0, len(root.Rates))
	for _, r := range root.Rates {
		emp := r.EmploymentType
		if emp == "" {
			emp = "FullTime"
		}
		out = append(out, RoleRateEntry{
			Role:           r.Role,
			EmploymentType: emp,
			DailyRate:      decimal.NewFromFloat(r.DailyRate),
			HourlyRate:     decimal.NewFromFloat(r.HourlyRate),
		})
	}
	return out, nil
}

// ResourceTypeFor maps a catalog employment type onto a rate type.
func ResourceTypeFor(employmentType string) ResourceType {
	if strings.EqualFold(strings.TrimSpace(employmentType), "contractor") {
		return ResourceContractor
	}
	return ResourceFTE
}

// ToResourceRate converts the entry into an estimate rate.
func (r RoleRateEntry) ToResourceRate() ResourceRate {
	return ResourceRate{
		Role:       r.Role,
		Type:       ResourceTypeFor(r.EmploymentType),
		DailyRate:  r.DailyRate,
		HourlyRate: r.HourlyRate,
	}
}

// NewEstimateFromCatalogs creates an estimate pre-filled with the default
// rate card and a zero-hour placeholder for every baseline supporting
// activity.
func (r *ReferenceData) NewEstimateFromCatalogs(name, client string) *Estimate {
	e := NewEstimate(name, client)
	for _, entry := range r.RoleRates.Snapshot() {
		e.ResourceRates = append(e.ResourceRates, entry.ToResourceRate())
	}
	for _, act := range r.Supporting.Snapshot() {
		if !act.Baseline {
			continue
		}
		nf := &NonFunctionalItem{Title: act.Title, Description: act.Notes}
		for _, da := range act.DefaultAllocations {
			nf.Allocations = append(nf.Allocations, ResourceAllocation{Role: da.Role, Hours: decimal.Zero})
		}
		e.NonFunctionalItems = append(e.NonFunctionalItems, nf)
	}
	return e
}

// ── Teams ───────────────────────────────────────────────────────────────

type TeamRole struct {
	Role           string `json:"role"`
	Count          int    `json:"count"`
	Seniority      string `json:"seniority,omitempty"`
	EmploymentType string `json:"employment_type"`
}

type Team struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Skills       []string   `json:"skills,omitempty"`
	Capabilities []string   `json:"capabilities,omitempty"`
	Roles        []TeamRole `json:"roles"`
	Active       bool       `json:"active"`
}

type teamsFile struct {
	Version int `yaml:"version"`
	Teams   []struct {
		ID           string   `yaml:"id"`
		Name         string   `yaml:"name"`
		Description  string   `yaml:"description"`
		Skills       []string `yaml:"skills"`
		Capabilities []string `yaml:"capabilities"`
		Roles        []struct {
			Role           string `yaml:"role"`
			Count          int    `yaml:"count"`
			Seniority      string `yaml:"seniority"`
			EmploymentType string `yaml:"employmentType"`
		} `yaml:"roles"`
		Active *bool `yaml:"active"`
	} `yaml:"teams"`
}

func parseTeams(data []byte) ([]Team, error) {
	var root teamsFile
	if err := unmarshalRoot(data, &root); err != nil {
		return nil, err
	}
	out := make([]Team, 0, len(root.Teams))
	for _, t := range root.Teams {
		team := Team{
			ID:           t.ID,
			Name:         t.Name,
			Description:  t.Description,
			Skills:       t.Skills,
			Capabilities: t.Capabilities,
			Active:       t.Active == nil || *t.Active,
		}
		for _, r := range t.Roles {
			team.Roles = append(team.Roles, TeamRole{
				Role:           r.Role,
				Count:          r.Count,
				Seniority:      r.Seniority,
				EmploymentType: r.EmploymentType,
			})
		}
		out = append(out, team)
	}
	return out, nil
}

// FindTeam looks a team up by id, ignoring case.
func (r *ReferenceData) FindTeam(id string) (Team, bool) {
	return r.Teams.Find(id, func(t Team) string { return t.ID })
}

// ActiveTeams returns the teams that can be picked for new estimates.
func (r *ReferenceData) ActiveTeams() []Team {
	var out []Team
	for _, t := range r.Teams.Snapshot() {
		if t.Active {
			out = append(out, t)
		}
	}
	return out
}

// Issue severities.
const (
	SeverityWarning = "Warning"
	SeverityError   = "Error"
)

type ResourceValidationIssue struct {
	Role           string `json:"role"`
	RequiredCount  int    `json:"required_count"`
	AvailableCount int    `json:"available_count"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
}

type ResourceValidationResult struct {
	IsValid bool                      `json:"is_valid"`
	Issues  []ResourceValidationIssue `json:"issues"`
}

// ValidateResourceAllocation checks that a team can staff the given role
// headcounts. A shortfall is a warning, or an error once the requirement is
// more than 1.5x what the team has. Roles are checked in name order.
func (r *ReferenceData) ValidateResourceAllocation(teamID string, requirements map[string]int) ResourceValidationResult {
	result := ResourceValidationResult{IsValid: true}

	team, ok := r.FindTeam(teamID)
	if !ok {
		result.IsValid = false
		result.Issues = append(result.Issues, ResourceValidationIssue{
			Role:     "Team",
			Severity: SeverityError,
			Message:  "Selected team not found",
		})
		return result
	}

	roles := newFoldedIndex(team.Roles, func(tr TeamRole) string { return tr.Role })

	names := make([]string, 0, len(requirements))
	for name := range requirements {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, role := range names {
		required := requirements[role]
		tr, ok := roles.lookup(role)
		if !ok {
			result.IsValid = false
			result.Issues = append(result.Issues, ResourceValidationIssue{
				Role:          role,
				RequiredCount: required,
				Severity:      SeverityError,
				Message:       fmt.Sprintf("Team '%s' does not have any %s resources", team.Name, role),
			})
			continue
		}
		if required > tr.Count {
			result.IsValid = false
			severity := SeverityWarning
			if float64(required) > float64(tr.Count)*1.5 {
				severity = SeverityError
			}
			result.Issues = append(result.Issues, ResourceValidationIssue{
				Role:           role,
				RequiredCount:  required,
				AvailableCount: tr.Count,
				Severity:       severity,
				Message:        fmt.Sprintf("Requires %d %s(s) but team '%s' only has %d", required, role, team.Name, tr.Count),
			})
		}
	}
	return result
}
