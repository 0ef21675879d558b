package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/orgguard/orgguard/pkg/domain"
)

func TestRecordPolicySave(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
	})

	ResetMetricsForTest()

	RecordPolicySave(ctx, PolicySaveMetrics{
		PolicyType: domain.PolicyTypeSingleOrg,
		Enabled:    true,
		Outcome:    OutcomeBadRequest,
		Duration:   150 * time.Millisecond,
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	metrics := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			metrics[m.Name] = m
		}
	}

	sumSaves, ok := metrics["orgguard.policy.saves_total"]
	if !ok {
		t.Fatalf("missing orgguard.policy.saves_total metric")
	}
	saveData, ok := sumSaves.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type for saves metric")
	}
	if len(saveData.DataPoints) != 1 {
		t.Fatalf("expected 1 datapoint, got %d", len(saveData.DataPoints))
	}
	if saveData.DataPoints[0].Value != 1 {
		t.Fatalf("expected saves count 1, got %d", saveData.DataPoints[0].Value)
	}
	if value, ok := saveData.DataPoints[0].Attributes.Value(attribute.Key("policy.type")); !ok || value.AsString() != string(domain.PolicyTypeSingleOrg) {
		t.Fatalf("expected policy.type attribute to be %s, got %v", domain.PolicyTypeSingleOrg, value)
	}

	sumRejected, ok := metrics["orgguard.policy.saves_rejected_total"]
	if !ok {
		t.Fatalf("missing orgguard.policy.saves_rejected_total metric")
	}
	rejectedData := sumRejected.Data.(metricdata.Sum[int64])
	if rejectedData.DataPoints[0].Value != 1 {
		t.Fatalf("expected rejected count 1, got %d", rejectedData.DataPoints[0].Value)
	}

	hist, ok := metrics["orgguard.policy.save_duration_ms"]
	if !ok {
		t.Fatalf("missing orgguard.policy.save_duration_ms metric")
	}
	histData := hist.Data.(metricdata.Histogram[float64])
	if histData.DataPoints[0].Count != 1 {
		t.Fatalf("expected histogram count 1, got %d", histData.DataPoints[0].Count)
	}
	if histData.DataPoints[0].Sum != 150 {
		t.Fatalf("expected histogram sum 150, got %v", histData.DataPoints[0].Sum)
	}
}

func TestRecordPolicySaveAddsSpanEvent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider()
	tp.RegisterSpanProcessor(recorder)
	tracer := tp.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "save")
	RecordPolicySave(ctx, PolicySaveMetrics{
		PolicyType: domain.PolicyTypeRequireSso,
		Enabled:    true,
		Outcome:    OutcomeSuccess,
	})
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	events := spans[0].Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 save event, got %d", len(events))
	}
	if events[0].Name != "policy.save" {
		t.Fatalf("unexpected event name %q", events[0].Name)
	}

	attrs := attribute.NewSet(events[0].Attributes...)
	if value, ok := attrs.Value(attribute.Key("save.outcome")); !ok || value.AsString() != OutcomeSuccess {
		t.Fatalf("expected save.outcome success, got %v", value)
	}

	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown tracer provider: %v", err)
	}
}

func TestSaveOutcome(t *testing.T) {
	if got := SaveOutcome(nil); got != OutcomeSuccess {
		t.Fatalf("expected success outcome, got %q", got)
	}
	if got := SaveOutcome(domain.BadRequest("Organization not found")); got != OutcomeBadRequest {
		t.Fatalf("expected bad_request outcome, got %q", got)
	}
	if got := SaveOutcome(errors.New("store unavailable")); got != OutcomeError {
		t.Fatalf("expected error outcome, got %q", got)
	}
}
