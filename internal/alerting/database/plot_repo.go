package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
)

// GetPlot loads a plot with its thresholds, delivery preferences and farm
// name. Returns (nil, nil) when the plot does not exist.
func (d *Database) GetPlot(ctx context.Context, id string) (*model.Plot, error) {
	const q = `
	SELECT p.id, p.farm_id, p.name, COALESCE(p.plot_number, ''), p.status,
	       p.alert_thresholds, p.delivery_preferences, p.created_at, f.name
	FROM plots p
	JOIN farms f ON p.farm_id = f.id
	WHERE p.id = $1`

	var (
		plot        model.Plot
		status      string
		thresholds  []byte
		preferences []byte
	)
	err := d.QueryRowContext(ctx, q, id).Scan(
		&plot.ID, &plot.FarmID, &plot.Name, &plot.PlotNumber, &status,
		&thresholds, &preferences, &plot.CreatedAt, &plot.FarmName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plot: %w", err)
	}
	plot.Status = model.PlotStatus(status)

	if len(thresholds) > 0 {
		var ts model.ThresholdSet
		if err := json.Unmarshal(thresholds, &ts); err != nil {
			return nil, fmt.Errorf("parse alert_thresholds for plot %s: %w", id, err)
		}
		plot.AlertThresholds = &ts
	}
	if len(preferences) > 0 {
		var prefs model.DeliveryPreferences
		if err := json.Unmarshal(preferences, &prefs); err != nil {
			return nil, fmt.Errorf("parse delivery_preferences for plot %s: %w", id, err)
		}
		plot.DeliveryPreferences = &prefs
	}
	return &plot, nil
}

// SetPlotStatus overwrites the plot health state. Called unconditionally on
// every processed reading; last reading wins.
func (d *Database) SetPlotStatus(ctx context.Context, id string, status model.PlotStatus) error {
	const q = `UPDATE plots SET status = $2, updated_at = now() WHERE id = $1`
	res, err := d.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return fmt.Errorf("set plot status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set plot status %s: %w", id, model.ErrNotFound)
	}
	return nil
}
