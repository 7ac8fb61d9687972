package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// foldKey normalizes a resource key or role name for comparison. Keys match
// on the whole string, ignoring case; there is no partial matching.
func foldKey(s string) string {
	return cases.Fold().String(s)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Assignments maps resource keys to utilization percentages. Keys compare
// case-insensitively, and iteration follows insertion order. The zero value
// is an empty mapping ready to use.
type Assignments struct {
	keys     []string
	percents []decimal.Decimal
	index    map[string]int
}

// Set stores percent under key. If the key already exists in any casing its
// percent is replaced; the original casing and position are kept.
func (a *Assignments) Set(key string, percent decimal.Decimal) {
	folded := foldKey(key)
	if i, ok := a.index[folded]; ok {
		a.percents[i] = percent
		return
	}
	if a.index == nil {
		a.index = make(map[string]int)
	}
	a.index[folded] = len(a.keys)
	a.keys = append(a.keys, key)
	a.percents = append(a.percents, percent)
}

// Get looks key up case-insensitively.
func (a Assignments) Get(key string) (decimal.Decimal, bool) {
	i, ok := a.index[foldKey(key)]
	if !ok {
		return decimal.Zero, false
	}
	return a.percents[i], true
}

// Len reports the number of distinct keys.
func (a Assignments) Len() int {
	return len(a.keys)
}

// Each calls fn for every entry in insertion order.
func (a Assignments) Each(fn func(key string, percent decimal.Decimal)) {
	for i, k := range a.keys {
		fn(k, a.percents[i])
	}
}

// Keys returns the stored keys in insertion order.
func (a Assignments) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// foldedIndex is a read-only case-insensitive lookup from a name to the first
// item that carries it.
type foldedIndex[T any] map[string]T

func newFoldedIndex[T any](items []T, name func(T) string) foldedIndex[T] {
	idx := make(foldedIndex[T], len(items))
	for _, it := range items {
		k := foldKey(name(it))
		if _, exists := idx[k]; exists {
			continue
		}
		idx[k] = it
	}
	return idx
}

func (idx foldedIndex[T]) lookup(name string) (T, bool) {
	v, ok := idx[foldKey(name)]
	return v, ok
}
