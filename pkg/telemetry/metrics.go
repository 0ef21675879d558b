package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/orgguard/orgguard/pkg/domain"
)

// Save outcomes partition the policy save counters. Rejected saves are the
// interesting slice: they show admins hitting dependency or validation rules.
const (
	OutcomeSuccess    = "success"
	OutcomeBadRequest = "bad_request"
	OutcomeError      = "error"
)

var (
	metricsOnce         sync.Once
	metricsInitErr      error
	saveCounter         metric.Int64Counter
	saveRejectedCounter metric.Int64Counter
	saveLatencyHist     metric.Float64Histogram
)

// PolicySaveMetrics captures the fields needed to record one policy save.
type PolicySaveMetrics struct {
	PolicyType domain.PolicyType
	Enabled    bool
	Outcome    string
	Duration   time.Duration
}

// SaveOutcome maps a save error to its metrics outcome label.
func SaveOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case domain.IsBadRequest(err):
		return OutcomeBadRequest
	default:
		return OutcomeError
	}
}

// RecordPolicySave emits the counters and histogram that describe policy save
// behaviour, and attaches a matching event to the active span when one is
// recording. Recording failures are swallowed; metrics never fail a save.
func RecordPolicySave(ctx context.Context, metrics PolicySaveMetrics) {
	attrs := []attribute.KeyValue{
		attribute.String("policy.type", string(metrics.PolicyType)),
		attribute.Bool("policy.enabled", metrics.Enabled),
		attribute.String("save.outcome", metrics.Outcome),
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("policy.save", trace.WithAttributes(attrs...))
	}

	if err := ensureMetrics(); err != nil {
		return
	}

	saveCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if metrics.Duration > 0 {
		saveLatencyHist.Record(ctx, float64(metrics.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}

	if metrics.Outcome == OutcomeBadRequest {
		saveRejectedCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("orgguard.policy")

		saveCounter, metricsInitErr = meter.Int64Counter(
			"orgguard.policy.saves_total",
			metric.WithDescription("Policy save attempts partitioned by outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		saveRejectedCounter, metricsInitErr = meter.Int64Counter(
			"orgguard.policy.saves_rejected_total",
			metric.WithDescription("Policy saves rejected by dependency or validation rules"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		saveLatencyHist, metricsInitErr = meter.Float64Histogram(
			"orgguard.policy.save_duration_ms",
			metric.WithDescription("Observed policy save latency"),
			metric.WithUnit("ms"),
		)
	})

	return metricsInitErr
}
