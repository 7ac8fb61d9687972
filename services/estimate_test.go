package services

import (
	"testing"
	"time"
)

func withIDs(e *Estimate) *Estimate {
	e.ID = "est1"
	e.Version = 3
	e.CreatedAt = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, f := range e.FunctionalItems {
		f.ID = "line" + string(rune('a'+i))
	}
	for _, n := range e.NonFunctionalItems {
		n.ID = "nf"
		for i := range n.Allocations {
			n.Allocations[i].ID = "alloc"
		}
	}
	for i := range e.ResourceRates {
		e.ResourceRates[i].ID = "rate"
	}
	for i := range e.RoleMappings {
		e.RoleMappings[i].ID = "map"
	}
	return e
}

func TestNewEstimate_Defaults(t *testing.T) {
	e := NewEstimate("", "Acme")
	if e.Name != "New Estimate" {
		t.Errorf("Name = %q, want %q", e.Name, "New Estimate")
	}
	if e.SprintLengthDays != DefaultSprintLengthDays || e.Version != 1 {
		t.Errorf("SprintLengthDays/Version = %d/%d", e.SprintLengthDays, e.Version)
	}
}

func TestCloneAsNewVersion(t *testing.T) {
	orig := withIDs(sampleEstimate())
	c := orig.CloneAsNewVersion()

	if c.ID != "" || c.Reference != "" || !c.CreatedAt.IsZero() {
		t.Errorf("clone should clear id/reference/created, got %q/%q/%v", c.ID, c.Reference, c.CreatedAt)
	}
	if c.Version != 4 {
		t.Errorf("Version = %d, want 4", c.Version)
	}
	if c.ClonedFromEstimateID != "est1" {
		t.Errorf("ClonedFromEstimateID = %q, want est1", c.ClonedFromEstimateID)
	}
	if len(c.FunctionalItems) != 2 || c.FunctionalItems[0].ID != "" {
		t.Fatalf("functional items not copied with cleared ids: %+v", c.FunctionalItems)
	}
	if c.NonFunctionalItems[0].Allocations[0].ID != "" || c.ResourceRates[0].ID != "" || c.RoleMappings[0].ID != "" {
		t.Error("child ids should be cleared on the clone")
	}

	// The original must be untouched.
	if orig.ID != "est1" || orig.FunctionalItems[0].ID != "linea" {
		t.Error("clone modified the original's ids")
	}
	if orig.NonFunctionalItems[0].Allocations[0].ID != "alloc" || orig.ResourceRates[0].ID != "rate" {
		t.Error("clone shares child slices with the original")
	}

	// Deep copy: editing the clone leaves the original alone.
	c.FunctionalItems[0].Title = "Changed"
	*c.FunctionalItems[0].AverageSprints = dec("9")
	c.NonFunctionalItems[0].Allocations[0].Hours = dec("99")
	if orig.FunctionalItems[0].Title != "Login" {
		t.Error("line title shared between clone and original")
	}
	if !orig.FunctionalItems[0].AverageSprints.Equal(dec("1")) {
		t.Error("average sprints shared between clone and original")
	}
	if !orig.NonFunctionalItems[0].Allocations[0].Hours.Equal(dec("10")) {
		t.Error("allocations shared between clone and original")
	}
}

func TestResetIDs_KeepsReference(t *testing.T) {
	e := withIDs(sampleEstimate())
	e.ResetIDs()

	if e.ID != "" || !e.CreatedAt.IsZero() {
		t.Errorf("ID/CreatedAt not cleared: %q/%v", e.ID, e.CreatedAt)
	}
	if e.Reference == "" {
		t.Error("Reference should be kept")
	}
	if e.Version != 3 {
		t.Errorf("Version = %d, want 3", e.Version)
	}
	if e.FunctionalItems[1].ID != "" || e.NonFunctionalItems[0].ID != "" {
		t.Error("child ids not cleared")
	}
}

func TestUniqueRoleMappings(t *testing.T) {
	in := []RoleMapping{
		{SourceRole: "QA", TargetRole: "Tester"},
		{SourceRole: " ", TargetRole: "Developer"},
		{SourceRole: "qa", TargetRole: "Developer"},
		{SourceRole: "BA", TargetRole: "Analyst"},
	}
	got := UniqueRoleMappings(in)
	if len(got) != 2 {
		t.Fatalf("UniqueRoleMappings() returned %d mappings, want 2: %+v", len(got), got)
	}
	if got[0].TargetRole != "Tester" || got[1].SourceRole != "BA" {
		t.Errorf("UniqueRoleMappings() = %+v", got)
	}
}
