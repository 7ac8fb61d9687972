package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"
)

// Catalog is a read-only, reloadable list of reference records backed by a
// single YAML (or JSON) file. Readers always get a copy of the current
// snapshot; a failed reload leaves the previous snapshot in place.
type Catalog[T any] struct {
	path  string
	parse func([]byte) ([]T, error)

	mu    sync.RWMutex
	items []T
}

// NewCatalog returns an empty catalog for path. Call Reload to populate it.
func NewCatalog[T any](path string, parse func([]byte) ([]T, error)) *Catalog[T] {
	return &Catalog[T]{path: path, parse: parse}
}

// Path is the file the catalog reads.
func (c *Catalog[T]) Path() string {
	return c.path
}

// Reload re-reads the backing file. A missing file empties the catalog.
func (c *Catalog[T]) Reload() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", c.path, err)
	}
	items, err := c.parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.path, err)
	}
	c.replace(items)
	return nil
}

func (c *Catalog[T]) replace(items []T) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// Snapshot returns a copy of the current records.
func (c *Catalog[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the first record whose key matches case-insensitively.
func (c *Catalog[T]) Find(key string, keyOf func(T) string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	folded := foldKey(key)
	for _, it := range c.items {
		if foldKey(keyOf(it)) == folded {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// File names inside the catalog directory.
const (
	PatternsFile             = "common_patterns.yaml"
	SupportingActivitiesFile = "supporting_activities.yaml"
	TeamsFile                = "teams.yaml"
	RoleRatesFile            = "role_rates.yaml"
)

// ReferenceData bundles the catalogs an estimate is built from. Handlers and
// startup code receive it by injection; the cost engine never sees it.
type ReferenceData struct {
	Patterns   *Catalog[CommonPattern]
	Supporting *Catalog[SupportingActivity]
	Teams      *Catalog[Team]
	RoleRates  *Catalog[RoleRateEntry]
}

// NewReferenceData wires one catalog per file under dir. It does not read
// anything until ReloadAll is called.
func NewReferenceData(dir string) *ReferenceData {
	return &ReferenceData{
		Patterns:   NewCatalog(filepath.Join(dir, PatternsFile), parsePatterns),
		Supporting: NewCatalog(filepath.Join(dir, SupportingActivitiesFile), parseSupportingActivities),
		Teams:      NewCatalog(filepath.Join(dir, TeamsFile), parseTeams),
		RoleRates:  NewCatalog(filepath.Join(dir, RoleRatesFile), parseRoleRates),
	}
}

// ReloadAll reloads every catalog and joins their errors. Catalogs that load
// successfully are updated even when another one fails.
func (r *ReferenceData) ReloadAll() error {
	return errors.Join(
		r.Patterns.Reload(),
		r.Supporting.Reload(),
		r.Teams.Reload(),
		r.RoleRates.Reload(),
	)
}

// unmarshalRoot decodes a catalog file into root.
func unmarshalRoot(data []byte, root any) error {
	return yaml.Unmarshal(data, root)
}
