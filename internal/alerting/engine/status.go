package engine

import "github.com/plotwatch/plotwatch/internal/alerting/model"

// AggregateStatus rolls a batch of facts into a plot health state. An empty
// batch means healthy. Any critical fact marks the plot critical; any other
// fact, down to a single low, marks it warning. A non-empty batch never
// yields healthy.
func AggregateStatus(facts []model.AlertFact) model.PlotStatus {
	if len(facts) == 0 {
		return model.PlotHealthy
	}
	for _, f := range facts {
		if f.Severity == model.SeverityCritical {
			return model.PlotCritical
		}
	}
	return model.PlotWarning
}
