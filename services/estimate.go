package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceType distinguishes full-time staff from contractors when a squad
// composition is derived from an estimate's rates.
type ResourceType string

const (
	ResourceFTE        ResourceType = "FTE"
	ResourceContractor ResourceType = "Contractor"
)

// LineSourceType records whether a functional line came from the common
// pattern catalog or was entered by hand.
type LineSourceType string

const (
	SourceCommonPattern LineSourceType = "common_pattern"
	SourceCustom        LineSourceType = "custom"
)

// ResourceRate prices one role (or one named resource, via SourceKey) on an
// estimate.
type ResourceRate struct {
	ID         string          `json:"id,omitempty"`
	Role       string          `json:"role"`
	Type       ResourceType    `json:"type"`
	DailyRate  decimal.Decimal `json:"daily_rate"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	SourceKey  string          `json:"source_key,omitempty"`
	// LegacyNumber is the static resource number used by the old numeric
	// assignment format. Zero when the rate was never numbered.
	LegacyNumber int `json:"legacy_number,omitempty"`
}

// RoleMapping redirects an allocation's nominal role to the role priced by
// a ResourceRate.
type RoleMapping struct {
	ID         string `json:"id,omitempty"`
	SourceRole string `json:"source_role"`
	TargetRole string `json:"target_role"`
}

type ResourceAllocation struct {
	ID    string          `json:"id,omitempty"`
	Role  string          `json:"role"`
	Hours decimal.Decimal `json:"hours"`
}

type NonFunctionalItem struct {
	ID          string               `json:"id,omitempty"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Allocations []ResourceAllocation `json:"allocations"`
}

type FunctionalLineItem struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	SourceType  LineSourceType `json:"source_type"`
	PatternKey  string         `json:"pattern_key,omitempty"`
	// AverageSprints is the historical baseline copied from the pattern
	// catalog. Nil for custom lines.
	AverageSprints *decimal.Decimal `json:"average_sprints,omitempty"`
	Sprints        decimal.Decimal  `json:"sprints"`
	// AssignedResourceIDs is the serialized assignment mapping, see
	// EncodeAssignments.
	AssignedResourceIDs string `json:"assigned_resource_ids,omitempty"`
	IsDeviationFlagged  bool   `json:"is_deviation_flagged"`
	Outcome             string `json:"outcome,omitempty"`
}

// AssignedResources decodes the line's stored assignment string.
func (f *FunctionalLineItem) AssignedResources() Assignments {
	return DecodeAssignments(f.AssignedResourceIDs)
}

// SetAssignedResources encodes a and stores the result on the line. An empty
// mapping clears the stored string.
func (f *FunctionalLineItem) SetAssignedResources(a Assignments) {
	encoded, ok := EncodeAssignments(a)
	if !ok {
		f.AssignedResourceIDs = ""
		return
	}
	f.AssignedResourceIDs = encoded
}

// Estimate is the snapshot of a persisted estimate and its children handed
// to the cost engine.
type Estimate struct {
	ID                    string          `json:"id,omitempty"`
	Reference             string          `json:"reference"`
	Name                  string          `json:"name"`
	Client                string          `json:"client"`
	TeamID                string          `json:"team_id,omitempty"`
	ProblemStatement      string          `json:"problem_statement,omitempty"`
	JiraIdeaURL           string          `json:"jira_idea_url,omitempty"`
	JiraInitiativeURL     string          `json:"jira_initiative_url,omitempty"`
	PreparedBy            string          `json:"prepared_by,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	SprintLengthDays      int             `json:"sprint_length_days"`
	ContingencyPercent    decimal.Decimal `json:"contingency_percent"`
	FunctionalSubtotal    decimal.Decimal `json:"functional_subtotal"`
	NonFunctionalSubtotal decimal.Decimal `json:"non_functional_subtotal"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Total                 decimal.Decimal `json:"total"`
	Version               int             `json:"version"`
	ClonedFromEstimateID  string          `json:"cloned_from_estimate_id,omitempty"`

	FunctionalItems    []*FunctionalLineItem `json:"functional_items"`
	NonFunctionalItems []*NonFunctionalItem  `json:"non_functional_items"`
	ResourceRates      []ResourceRate        `json:"resource_rates"`
	RoleMappings       []RoleMapping         `json:"role_mappings"`
}

// DefaultSprintLengthDays is a two-week sprint.
const DefaultSprintLengthDays = 10

// NewEstimate returns an estimate with the defaults a freshly created record
// carries.
func NewEstimate(name, client string) *Estimate {
	if name == "" {
		name = "New Estimate"
	}
	return &Estimate{
		Name:             name,
		Client:           client,
		SprintLengthDays: DefaultSprintLengthDays,
		Version:          1,
	}
}

// CloneAsNewVersion returns a deep copy of e for the next version. Record
// ids and the reference are cleared so the copy is saved as a new estimate.
func (e *Estimate) CloneAsNewVersion() *Estimate {
	c := *e
	c.Reference = ""
	c.Version = e.Version + 1
	c.ClonedFromEstimateID = e.ID

	c.FunctionalItems = make([]*FunctionalLineItem, 0, len(e.FunctionalItems))
	for _, f := range e.FunctionalItems {
		if f == nil {
			continue
		}
		line := *f
		if f.AverageSprints != nil {
			avg := *f.AverageSprints
			line.AverageSprints = &avg
		}
		c.FunctionalItems = append(c.FunctionalItems, &line)
	}

	c.NonFunctionalItems = make([]*NonFunctionalItem, 0, len(e.NonFunctionalItems))
	for _, n := range e.NonFunctionalItems {
		if n == nil {
			continue
		}
		item := *n
		item.Allocations = append([]ResourceAllocation(nil), n.Allocations...)
		c.NonFunctionalItems = append(c.NonFunctionalItems, &item)
	}

	c.ResourceRates = append([]ResourceRate(nil), e.ResourceRates...)
	c.RoleMappings = append([]RoleMapping(nil), e.RoleMappings...)
	c.ResetIDs()
	return &c
}

// ResetIDs clears the record ids and timestamps of e and its children so
// that saving it creates new records. The reference is kept.
func (e *Estimate) ResetIDs() {
	e.ID = ""
	e.CreatedAt, e.UpdatedAt = time.Time{}, time.Time{}
	for _, f := range e.FunctionalItems {
		if f != nil {
			f.ID = ""
		}
	}
	for _, n := range e.NonFunctionalItems {
		if n == nil {
			continue
		}
		n.ID = ""
		for i := range n.Allocations {
			n.Allocations[i].ID = ""
		}
	}
	for i := range e.ResourceRates {
		e.ResourceRates[i].ID = ""
	}
	for i := range e.RoleMappings {
		e.RoleMappings[i].ID = ""
	}
}

// UniqueRoleMappings drops mappings with a blank source role and keeps only
// the first mapping per source role, compared case-insensitively. Cost
// lookups already resolve that way; storage enforces it.
func UniqueRoleMappings(mappings []RoleMapping) []RoleMapping {
	seen := make(map[string]bool, len(mappings))
	out := make([]RoleMapping, 0, len(mappings))
	for _, m := range mappings {
		if isBlank(m.SourceRole) {
			continue
		}
		k := foldKey(m.SourceRole)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}
