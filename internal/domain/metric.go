package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MetricKind tags which form a metric value arrived in.
type MetricKind int

const (
	MetricAbsent MetricKind = iota
	MetricNumber
	MetricString
)

// Metric is a device-reported numeric field that may be missing, a JSON
// number, or a numeric string.
type Metric struct {
	Kind   MetricKind
	Number float64
	Text   string
}

// NumberMetric builds a Metric holding a JSON number.
func NumberMetric(v float64) Metric { return Metric{Kind: MetricNumber, Number: v} }

// StringMetric builds a Metric holding a numeric string.
func StringMetric(s string) Metric { return Metric{Kind: MetricString, Text: s} }

// UnmarshalJSON accepts null, numbers and strings. Any other JSON type is
// treated as absent rather than failing the whole payload.
func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*m = Metric{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = StringMetric(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*m = NumberMetric(f)
	}
	return nil
}

// MarshalJSON writes the metric back in the form it was received.
func (m Metric) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MetricNumber:
		return json.Marshal(m.Number)
	case MetricString:
		return json.Marshal(m.Text)
	default:
		return []byte("null"), nil
	}
}

// Float coerces the metric for calories and distance: absent and
// unparseable strings become zero.
func (m Metric) Float() float64 {
	switch m.Kind {
	case MetricNumber:
		return m.Number
	case MetricString:
		f, err := strconv.ParseFloat(strings.TrimSpace(m.Text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Steps coerces the metric into a step count. Numbers are truncated like an
// integer conversion; strings are parsed as decimals and rounded half up.
func (m Metric) Steps() int64 {
	switch m.Kind {
	case MetricNumber:
		return int64(m.Number)
	case MetricString:
		f := m.Float()
		return int64(math.Floor(f + 0.5))
	default:
		return 0
	}
}
