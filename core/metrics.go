package core

import (
	"context"
	"strings"
)

const metricPrefix = "eventsub"

// MetricAuditDegraded counts audits that found at least one missing pair.
const MetricAuditDegraded = metricPrefix + ".audit.degraded.total"

// OperationCounterName returns the counter incremented once per operation run,
// tagged with its status.
func OperationCounterName(operation string) string {
	return metricPrefix + "." + normalizeOperation(operation) + ".total"
}

// OperationDurationName returns the histogram fed with the run time of an
// operation in milliseconds.
func OperationDurationName(operation string) string {
	return metricPrefix + "." + normalizeOperation(operation) + ".duration_ms"
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
