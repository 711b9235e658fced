package core

// DetectBrokenness flags remote bookkeeping that cannot be trusted for an
// incremental diff: a pair listed more than once, or a pair outside the
// desired domain. Entries without an id still count.
func DetectBrokenness(current []RemoteSubscription, desired DesiredSet) BrokennessReport {
	report := BrokennessReport{
		Duplicates: []EventKey{},
		Unknown:    []EventKey{},
	}
	seen := make(map[EventKey]int, len(current))
	unknown := map[EventKey]struct{}{}
	for _, entry := range current {
		key := entry.Key()
		seen[key]++
		if seen[key] == 2 {
			report.Duplicates = append(report.Duplicates, key)
		}
		if desired.Contains(key) {
			continue
		}
		if _, reported := unknown[key]; reported {
			continue
		}
		unknown[key] = struct{}{}
		report.Unknown = append(report.Unknown, key)
	}
	report.Broken = len(report.Duplicates) > 0 || len(report.Unknown) > 0
	return report
}
