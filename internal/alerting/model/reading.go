package model

import (
	"strings"
	"time"
	"unicode"
)

// Metric identifies one of the monitored measurements. The raw snake_case
// value is what gets stored as alert_type.
type Metric string

const (
	MetricTemperature  Metric = "temperature"
	MetricHumidity     Metric = "humidity"
	MetricSoilMoisture Metric = "soil_moisture"
)

// Unit returns the display unit for the metric.
func (m Metric) Unit() string {
	if m == MetricTemperature {
		return "°C"
	}
	return "%"
}

// Display humanizes the metric name for messages: underscores become spaces
// and the first word is capitalized ("soil_moisture" -> "Soil moisture").
func (m Metric) Display() string {
	s := strings.ReplaceAll(string(m), "_", " ")
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func (m Metric) Valid() bool {
	switch m {
	case MetricTemperature, MetricHumidity, MetricSoilMoisture:
		return true
	default:
		return false
	}
}

// SensorReading is one timestamped tuple of measurements for a plot.
// Immutable once created.
type SensorReading struct {
	ID           string    `json:"id,omitempty"`
	PlotID       string    `json:"plot_id"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	SoilMoisture float64   `json:"soil_moisture"`
	Timestamp    time.Time `json:"timestamp"`
}

// Value returns the measurement for the given metric.
func (r SensorReading) Value(m Metric) float64 {
	switch m {
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	case MetricSoilMoisture:
		return r.SoilMoisture
	default:
		return 0
	}
}

// Physical bounds for reading validation. Values outside these ranges are
// sensor faults, rejected before evaluation.
const (
	TemperatureMin = -50.0
	TemperatureMax = 100.0
	PercentMin     = 0.0
	PercentMax     = 100.0
)

// Validate rejects physically impossible readings.
func (r SensorReading) Validate() error {
	if r.PlotID == "" {
		return NewValidationError("plot_id is required")
	}
	if r.Temperature < TemperatureMin || r.Temperature > TemperatureMax {
		return NewValidationError("temperature out of range [-50, 100]")
	}
	if r.Humidity < PercentMin || r.Humidity > PercentMax {
		return NewValidationError("humidity out of range [0, 100]")
	}
	if r.SoilMoisture < PercentMin || r.SoilMoisture > PercentMax {
		return NewValidationError("soil_moisture out of range [0, 100]")
	}
	return nil
}
