package model

import (
	"time"
)

// Severity classifies how far a reading deviates from its threshold.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns an ordinal for severity comparison; unknown severities rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Direction indicates which bound of a threshold range was breached.
type Direction string

const (
	DirectionBelow Direction = "below"
	DirectionAbove Direction = "above"
)

// Alert lifecycle states. Acknowledged and dismissed are terminal.
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusDismissed    = "dismissed"
)

// AlertFact is a transient record of one threshold violation computed during
// evaluation. It becomes a persisted Alert only if it survives deduplication.
type AlertFact struct {
	PlotID         string    `json:"plot_id"`
	AlertType      Metric    `json:"alert_type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Condition      string    `json:"condition"`
	ThresholdValue float64   `json:"threshold_value"`
	ActualValue    float64   `json:"actual_value"`
	Direction      Direction `json:"direction"`
}

// Alert is a persisted, lifecycle-tracked notification derived from a fact.
// At most one active alert may exist per (plot, metric, direction, threshold)
// key; the alerts table enforces this with a partial unique index.
type Alert struct {
	ID             string     `json:"id"`
	PlotID         string     `json:"plot_id"`
	AlertType      Metric     `json:"alert_type"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	Condition      string     `json:"condition"`
	ThresholdValue float64    `json:"threshold_value"`
	ActualValue    float64    `json:"actual_value"`
	Direction      Direction  `json:"direction"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Denormalized from the plots/farms join for display and webhook payloads.
	PlotName string `json:"plot_name,omitempty"`
	FarmName string `json:"farm_name,omitempty"`
}

// AlertStats aggregates alert counts by status and severity.
type AlertStats struct {
	Total        int `json:"total_alerts"`
	Active       int `json:"active_alerts"`
	Acknowledged int `json:"acknowledged_alerts"`
	Dismissed    int `json:"dismissed_alerts"`
	Critical     int `json:"critical_alerts"`
	High         int `json:"high_alerts"`
	Medium       int `json:"medium_alerts"`
	Low          int `json:"low_alerts"`
}
