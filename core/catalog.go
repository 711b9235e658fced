package core

import (
	"fmt"
	"strings"
)

// DesiredSet is the fixed, ordered list of subscriptions the integration
// requires. It is built once and never mutated; accessors return copies.
type DesiredSet struct {
	entries []DesiredSubscription
	index   map[EventKey]int
}

func NewDesiredSet(entries ...DesiredSubscription) (DesiredSet, error) {
	if len(entries) == 0 {
		return DesiredSet{}, fmt.Errorf("core: desired set requires at least one subscription")
	}
	set := DesiredSet{
		entries: make([]DesiredSubscription, 0, len(entries)),
		index:   make(map[EventKey]int, len(entries)),
	}
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return DesiredSet{}, fmt.Errorf("core: desired subscription name is required")
		}
		if entry.Version < 1 {
			return DesiredSet{}, fmt.Errorf("core: desired subscription %q has invalid version %d", name, entry.Version)
		}
		normalized := DesiredSubscription{Name: name, Version: entry.Version}
		key := normalized.Key()
		if _, exists := set.index[key]; exists {
			return DesiredSet{}, fmt.Errorf("core: desired subscription %s listed more than once", key)
		}
		set.index[key] = len(set.entries)
		set.entries = append(set.entries, normalized)
	}
	return set, nil
}

// MustDesiredSet panics on invalid input. Intended for package-level catalogs.
func MustDesiredSet(entries ...DesiredSubscription) DesiredSet {
	set, err := NewDesiredSet(entries...)
	if err != nil {
		panic(err)
	}
	return set
}

func (s DesiredSet) Entries() []DesiredSubscription {
	return append([]DesiredSubscription{}, s.entries...)
}

func (s DesiredSet) Keys() []EventKey {
	keys := make([]EventKey, 0, len(s.entries))
	for _, entry := range s.entries {
		keys = append(keys, entry.Key())
	}
	return keys
}

func (s DesiredSet) Len() int {
	return len(s.entries)
}

func (s DesiredSet) Contains(key EventKey) bool {
	_, ok := s.index[key]
	return ok
}

func (s DesiredSet) IsZero() bool {
	return len(s.entries) == 0
}
