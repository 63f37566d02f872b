package engine

import (
	"fmt"
	"strconv"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
)

var evaluatedMetrics = []model.Metric{
	model.MetricTemperature,
	model.MetricHumidity,
	model.MetricSoilMoisture,
}

// Evaluate checks a reading against the plot's thresholds and returns one
// fact per violated bound. Metrics without a configured range are skipped.
// Pure and deterministic; no store access.
func Evaluate(reading model.SensorReading, thresholds model.ThresholdSet, c Classifier) []model.AlertFact {
	var facts []model.AlertFact
	for _, metric := range evaluatedMetrics {
		r := thresholds.Range(metric)
		if r == nil {
			continue
		}
		actual := reading.Value(metric)
		if r.Min != nil && actual < *r.Min {
			facts = append(facts, newFact(reading.PlotID, metric, actual, *r.Min, model.DirectionBelow, c))
		}
		if r.Max != nil && actual > *r.Max {
			facts = append(facts, newFact(reading.PlotID, metric, actual, *r.Max, model.DirectionAbove, c))
		}
	}
	return facts
}

func newFact(plotID string, metric model.Metric, actual, threshold float64, dir model.Direction, c Classifier) model.AlertFact {
	unit := metric.Unit()
	var condition string
	if dir == model.DirectionBelow {
		condition = fmt.Sprintf("below minimum threshold of %s%s", formatValue(threshold), unit)
	} else {
		condition = fmt.Sprintf("above maximum threshold of %s%s", formatValue(threshold), unit)
	}
	return model.AlertFact{
		PlotID:         plotID,
		AlertType:      metric,
		Severity:       c.Classify(actual, threshold),
		Message:        fmt.Sprintf("%s is %s%s, %s", metric.Display(), formatValue(actual), unit, condition),
		Condition:      condition,
		ThresholdValue: threshold,
		ActualValue:    actual,
		Direction:      dir,
	}
}

// formatValue renders numbers without trailing zeros (35 not 35.00).
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
