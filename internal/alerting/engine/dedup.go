package engine

import (
	"context"
	"fmt"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/rs/zerolog/log"
)

// Deduplicator decides whether a fact becomes a new alert or is suppressed in
// favor of an existing active one. Matching uses the structured
// (plot, metric, direction, threshold) key rather than condition substring
// containment, so nearby threshold values can never collide.
type Deduplicator struct {
	store AlertStore
}

func NewDeduplicator(store AlertStore) Deduplicator {
	return Deduplicator{store: store}
}

// ShouldCreate returns the existing active alert when the fact duplicates
// one, or (nil, true) when a new alert should be created. Two lookups: an
// exact match including severity, then any active alert for the same
// condition key regardless of severity. Either hit suppresses creation.
func (d Deduplicator) ShouldCreate(ctx context.Context, fact model.AlertFact) (*model.Alert, bool, error) {
	existing, err := d.store.FindDuplicateAlert(ctx, fact.PlotID, fact.AlertType, fact.Severity, fact.Direction, fact.ThresholdValue)
	if err != nil {
		return nil, false, fmt.Errorf("find duplicate alert: %w", err)
	}
	if existing != nil {
		log.Info().
			Str("plot_id", fact.PlotID).
			Str("alert_type", string(fact.AlertType)).
			Str("condition", fact.Condition).
			Msg("duplicate alert prevented")
		return existing, false, nil
	}

	active, err := d.store.FindActiveAlertForCondition(ctx, fact.PlotID, fact.AlertType, fact.Direction, fact.ThresholdValue)
	if err != nil {
		return nil, false, fmt.Errorf("find active alert for condition: %w", err)
	}
	if active != nil {
		log.Info().
			Str("plot_id", fact.PlotID).
			Str("alert_type", string(fact.AlertType)).
			Str("condition", fact.Condition).
			Msg("active alert already exists for condition")
		return active, false, nil
	}

	return nil, true, nil
}
