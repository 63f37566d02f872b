package engine

import (
	"math"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/alerting/policy"
)

// Classifier maps deviation magnitude to a severity level using the injected
// policy ramp. It is a linear percentage ramp, not a statistical model.
type Classifier struct {
	ramp policy.SeverityRamp
}

func NewClassifier(ramp policy.SeverityRamp) Classifier {
	return Classifier{ramp: ramp}
}

// Classify computes |actual-threshold|/threshold*100 and buckets it against
// the ramp. A zero threshold makes the deviation unbounded and classifies as
// critical.
func (c Classifier) Classify(actual, threshold float64) model.Severity {
	if threshold == 0 {
		return model.SeverityCritical
	}
	pct := math.Abs(actual-threshold) / math.Abs(threshold) * 100
	switch {
	case pct >= c.ramp.CriticalPct:
		return model.SeverityCritical
	case pct >= c.ramp.HighPct:
		return model.SeverityHigh
	case pct >= c.ramp.MediumPct:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
