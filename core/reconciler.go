package core

import "strings"

// Reconcile computes the create/delete actions that move current towards
// desired.
//
// When broken is false the diff is incremental: missing pairs are created,
// duplicates collapse to the first entry in current's iteration order and
// pairs outside the desired set are deleted. When broken is true nothing in
// current is trusted: every addressable entry is deleted and the full
// desired set is created.
//
// Entries without an id are never returned for deletion.
func Reconcile(current []RemoteSubscription, desired DesiredSet, broken bool) ReconciliationResult {
	result := ReconciliationResult{
		Create: []DesiredSubscription{},
		Delete: []string{},
	}
	// Ids are deduped and a surviving entry's id is never queued, so a remote
	// that reports one id for several entries yields fewer deletes than it
	// has surplus entries.
	queued := map[string]struct{}{}
	kept := map[string]struct{}{}
	queueDelete := func(entry RemoteSubscription) {
		if !entry.Addressable() {
			return
		}
		id := strings.TrimSpace(entry.ID)
		if _, ok := queued[id]; ok {
			return
		}
		if _, ok := kept[id]; ok {
			return
		}
		queued[id] = struct{}{}
		result.Delete = append(result.Delete, id)
	}

	if broken {
		result.Create = desired.Entries()
		for _, entry := range current {
			queueDelete(entry)
		}
		return result
	}

	matches := make(map[EventKey][]RemoteSubscription, len(current))
	for _, entry := range current {
		key := entry.Key()
		matches[key] = append(matches[key], entry)
	}

	for _, want := range desired.Entries() {
		if found := matches[want.Key()]; len(found) > 0 && found[0].Addressable() {
			kept[strings.TrimSpace(found[0].ID)] = struct{}{}
		}
	}

	for _, want := range desired.Entries() {
		found := matches[want.Key()]
		if len(found) == 0 {
			result.Create = append(result.Create, want)
			continue
		}
		for _, extra := range found[1:] {
			queueDelete(extra)
		}
	}

	for _, entry := range current {
		if desired.Contains(entry.Key()) {
			continue
		}
		queueDelete(entry)
	}

	return result
}

func addressableIDs(current []RemoteSubscription) []string {
	ids := make([]string, 0, len(current))
	seen := make(map[string]struct{}, len(current))
	for _, entry := range current {
		if !entry.Addressable() {
			continue
		}
		id := strings.TrimSpace(entry.ID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
