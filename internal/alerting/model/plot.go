package model

import "time"

// PlotStatus is the rolled-up health state of a plot, recomputed after every
// reading. Last reading wins; older unresolved alerts do not pin the status.
type PlotStatus string

const (
	PlotHealthy  PlotStatus = "healthy"
	PlotWarning  PlotStatus = "warning"
	PlotCritical PlotStatus = "critical"
)

// ThresholdRange is an optional min/max bound pair for one metric. A nil
// bound means no check on that side.
type ThresholdRange struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// ThresholdSet maps each metric to its configured range. Metrics without an
// entry are not evaluated at all.
type ThresholdSet struct {
	Temperature  *ThresholdRange `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Humidity     *ThresholdRange `json:"humidity,omitempty" yaml:"humidity,omitempty"`
	SoilMoisture *ThresholdRange `json:"soil_moisture,omitempty" yaml:"soil_moisture,omitempty"`
}

// Range returns the configured range for the metric, nil when unconfigured.
func (t ThresholdSet) Range(m Metric) *ThresholdRange {
	switch m {
	case MetricTemperature:
		return t.Temperature
	case MetricHumidity:
		return t.Humidity
	case MetricSoilMoisture:
		return t.SoilMoisture
	default:
		return nil
	}
}

// Empty reports whether no metric has a configured range.
func (t ThresholdSet) Empty() bool {
	return t.Temperature == nil && t.Humidity == nil && t.SoilMoisture == nil
}

// DeliveryPreferences holds plot-specific delivery channel overrides, unioned
// with the severity policy's default channels.
type DeliveryPreferences struct {
	Methods []string `json:"methods,omitempty"`
}

// Plot is a monitored land unit with configured thresholds and health status.
type Plot struct {
	ID                  string               `json:"id"`
	FarmID              string               `json:"farm_id"`
	Name                string               `json:"name"`
	PlotNumber          string               `json:"plot_number,omitempty"`
	FarmName            string               `json:"farm_name,omitempty"`
	Status              PlotStatus           `json:"status"`
	AlertThresholds     *ThresholdSet        `json:"alert_thresholds,omitempty"`
	DeliveryPreferences *DeliveryPreferences `json:"delivery_preferences,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
}

// Thresholds returns the plot's threshold set, empty when none configured.
func (p Plot) Thresholds() ThresholdSet {
	if p.AlertThresholds == nil {
		return ThresholdSet{}
	}
	return *p.AlertThresholds
}
