package engine

import (
	"testing"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
)

func TestClassify(t *testing.T) {
	c := testClassifier()
	cases := []struct {
		actual    float64
		threshold float64
		want      model.Severity
	}{
		{38, 35, model.SeverityLow},        // 8.6%
		{40, 35, model.SeverityMedium},     // 14.3%
		{45, 35, model.SeverityHigh},       // 28.6%
		{60, 35, model.SeverityCritical},   // 71.4%
		{43.75, 35, model.SeverityHigh},    // exactly 25%
		{52.5, 35, model.SeverityCritical}, // exactly 50%
		{5, 20, model.SeverityCritical},    // below-direction deviation 75%
		{18, 20, model.SeverityMedium},     // 10% exactly
	}
	for _, tc := range cases {
		if got := c.Classify(tc.actual, tc.threshold); got != tc.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tc.actual, tc.threshold, got, tc.want)
		}
	}
}

func TestClassify_NegativeThreshold(t *testing.T) {
	c := testClassifier()
	// deviation ramps on magnitude; a negative bound must not collapse to low
	cases := []struct {
		actual    float64
		threshold float64
		want      model.Severity
	}{
		{-5, -20, model.SeverityCritical}, // 75%
		{-14, -10, model.SeverityHigh},    // 40%
		{-11, -10, model.SeverityMedium},  // 10%
	}
	for _, tc := range cases {
		if got := c.Classify(tc.actual, tc.threshold); got != tc.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tc.actual, tc.threshold, got, tc.want)
		}
	}
}

func TestClassify_ZeroThreshold(t *testing.T) {
	c := testClassifier()
	if got := c.Classify(5, 0); got != model.SeverityCritical {
		t.Errorf("Classify with zero threshold = %s, want critical", got)
	}
}
