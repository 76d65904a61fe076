package stash

import (
	"iter"
	"maps"
	"slices"
)

// Registry manages the small open-vocabulary label sets used to classify
// securities (e.g. financial status, resources), keyed by category.
type Registry struct {
	options map[string][]string
}

// NewRegistry builds a registry from persisted option sets.
func NewRegistry(options map[string][]string) *Registry {
	if options == nil {
		options = make(map[string][]string)
	}
	return &Registry{options: options}
}

// Add inserts the candidate labels that are not already present (exact,
// case-sensitive match) into a category and keeps the set sorted
// alphabetically. It returns the labels actually added.
func (r *Registry) Add(category string, labels ...string) []string {
	existing := r.options[category]
	var added []string
	for _, label := range labels {
		if label == "" || slices.Contains(existing, label) {
			continue
		}
		existing = append(existing, label)
		added = append(added, label)
	}
	slices.Sort(existing)
	r.options[category] = existing
	return added
}

// Options returns the sorted labels of a category.
func (r *Registry) Options(category string) []string {
	return slices.Clone(r.options[category])
}

// Categories iterates over category names in sorted order.
func (r *Registry) Categories() iter.Seq[string] {
	return func(yield func(string) bool) {
		names := slices.Collect(maps.Keys(r.options))
		slices.Sort(names)
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// All returns the full option map, for persistence.
func (r *Registry) All() map[string][]string {
	return r.options
}
