package domain_test

import (
	"encoding/json"
	"math"
	"testing"

	"wearables/internal/domain"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func decodeMetric(t *testing.T, raw string) domain.Metric {
	t.Helper()
	var v struct {
		Value domain.Metric `json:"value"`
	}
	if err := json.Unmarshal([]byte(`{"value":`+raw+`}`), &v); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return v.Value
}

func TestMetricCoercion(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		kind      domain.MetricKind
		wantSteps int64
		wantFloat float64
	}{
		{"null", `null`, domain.MetricAbsent, 0, 0},
		{"integer", `120`, domain.MetricNumber, 120, 120},
		{"decimal number truncates steps", `12.9`, domain.MetricNumber, 12, 12.9},
		{"numeric string", `"50"`, domain.MetricString, 50, 50},
		{"decimal string rounds half up", `"1234.5"`, domain.MetricString, 1235, 1234.5},
		{"decimal string rounds down", `"1234.4"`, domain.MetricString, 1234, 1234.4},
		{"padded string", `" 7.25 "`, domain.MetricString, 7, 7.25},
		{"garbage string", `"abc"`, domain.MetricString, 0, 0},
		{"nan string", `"NaN"`, domain.MetricString, 0, 0},
		{"boolean ignored", `true`, domain.MetricAbsent, 0, 0},
		{"object ignored", `{"unit":"km"}`, domain.MetricAbsent, 0, 0},
		{"negative", `-3`, domain.MetricNumber, -3, -3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := decodeMetric(t, tc.raw)
			if m.Kind != tc.kind {
				t.Errorf("kind = %v; want %v", m.Kind, tc.kind)
			}
			if got := m.Steps(); got != tc.wantSteps {
				t.Errorf("Steps() = %d; want %d", got, tc.wantSteps)
			}
			if got := m.Float(); !almostEqual(got, tc.wantFloat, 1e-9) {
				t.Errorf("Float() = %v; want %v", got, tc.wantFloat)
			}
		})
	}
}

func TestMetricMissingFieldIsAbsent(t *testing.T) {
	var v struct {
		Steps domain.Metric `json:"steps"`
	}
	if err := json.Unmarshal([]byte(`{}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Steps.Kind != domain.MetricAbsent || v.Steps.Steps() != 0 {
		t.Fatalf("expected absent metric, got %+v", v.Steps)
	}
}

func TestMetricMarshalKeepsForm(t *testing.T) {
	out, err := json.Marshal([]domain.Metric{domain.NumberMetric(1.5), domain.StringMetric("2"), {}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `[1.5,"2",null]` {
		t.Fatalf("got %s", out)
	}
}
