package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
)

const alertColumns = `
	a.id, a.plot_id, a.alert_type, a.severity, a.message, a.status,
	COALESCE(a.condition, ''), COALESCE(a.threshold_value, 0), COALESCE(a.actual_value, 0),
	COALESCE(a.direction, ''), a.delivered_at, a.acknowledged_at, a.created_at,
	p.name, f.name`

const alertFrom = `
	FROM alerts a
	JOIN plots p ON a.plot_id = p.id
	JOIN farms f ON p.farm_id = f.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*model.Alert, error) {
	var (
		a         model.Alert
		alertType string
		severity  string
		direction string
	)
	err := row.Scan(
		&a.ID, &a.PlotID, &alertType, &severity, &a.Message, &a.Status,
		&a.Condition, &a.ThresholdValue, &a.ActualValue,
		&direction, &a.DeliveredAt, &a.AcknowledgedAt, &a.CreatedAt,
		&a.PlotName, &a.FarmName,
	)
	if err != nil {
		return nil, err
	}
	a.AlertType = model.Metric(alertType)
	a.Severity = model.Severity(severity)
	a.Direction = model.Direction(direction)
	return &a, nil
}

// CreateAlert inserts an alert for the fact. The partial unique index on
// active (plot, metric, direction, threshold) makes concurrent duplicate
// creation race-free: on conflict the insert is a no-op and the existing
// active alert is returned with created=false.
func (d *Database) CreateAlert(ctx context.Context, fact model.AlertFact) (*model.Alert, bool, error) {
	const q = `
	INSERT INTO alerts (id, plot_id, alert_type, severity, message, status,
	                    condition, threshold_value, actual_value, direction, created_at)
	VALUES ($1, $2, $3, $4, $5, 'active', $6, $7, $8, $9, now())
	ON CONFLICT (plot_id, alert_type, direction, threshold_value) WHERE status = 'active'
	DO NOTHING
	RETURNING created_at`

	id := uuid.NewString()
	var createdAt sql.NullTime
	err := d.QueryRowContext(ctx, q,
		id, fact.PlotID, string(fact.AlertType), string(fact.Severity), fact.Message,
		fact.Condition, fact.ThresholdValue, fact.ActualValue, string(fact.Direction),
	).Scan(&createdAt)
	if err == sql.ErrNoRows {
		// Another writer holds the active slot for this condition key.
		existing, ferr := d.FindActiveAlertForCondition(ctx, fact.PlotID, fact.AlertType, fact.Direction, fact.ThresholdValue)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("create alert: conflict but no active alert found")
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create alert: %w", err)
	}

	return &model.Alert{
		ID:             id,
		PlotID:         fact.PlotID,
		AlertType:      fact.AlertType,
		Severity:       fact.Severity,
		Message:        fact.Message,
		Status:         model.AlertStatusActive,
		Condition:      fact.Condition,
		ThresholdValue: fact.ThresholdValue,
		ActualValue:    fact.ActualValue,
		Direction:      fact.Direction,
		CreatedAt:      createdAt.Time,
	}, true, nil
}

// GetAlert returns the alert with farm/plot names, or (nil, nil).
func (d *Database) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	q := `SELECT` + alertColumns + alertFrom + ` WHERE a.id = $1`
	alert, err := scanAlert(d.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return alert, nil
}

// FindDuplicateAlert matches an active alert with the same severity and the
// same structured condition key.
func (d *Database) FindDuplicateAlert(ctx context.Context, plotID string, metric model.Metric, severity model.Severity, dir model.Direction, threshold float64) (*model.Alert, error) {
	q := `SELECT` + alertColumns + alertFrom + `
	WHERE a.plot_id = $1 AND a.alert_type = $2 AND a.severity = $3
	  AND a.direction = $4 AND a.threshold_value = $5 AND a.status = 'active'
	LIMIT 1`
	alert, err := scanAlert(d.QueryRowContext(ctx, q, plotID, string(metric), string(severity), string(dir), threshold))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate alert: %w", err)
	}
	return alert, nil
}

// FindActiveAlertForCondition matches any active alert for the structured
// condition key regardless of severity.
func (d *Database) FindActiveAlertForCondition(ctx context.Context, plotID string, metric model.Metric, dir model.Direction, threshold float64) (*model.Alert, error) {
	q := `SELECT` + alertColumns + alertFrom + `
	WHERE a.plot_id = $1 AND a.alert_type = $2
	  AND a.direction = $3 AND a.threshold_value = $4 AND a.status = 'active'
	LIMIT 1`
	alert, err := scanAlert(d.QueryRowContext(ctx, q, plotID, string(metric), string(dir), threshold))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active alert for condition: %w", err)
	}
	return alert, nil
}

// AlertFilter narrows ListAlerts. Zero values mean no filtering.
type AlertFilter struct {
	PlotID    string
	Status    string
	Severity  string
	AlertType string
}

// ListAlerts returns alerts matching the filter, newest first.
func (d *Database) ListAlerts(ctx context.Context, filter AlertFilter) ([]*model.Alert, error) {
	q := `SELECT` + alertColumns + alertFrom
	var conds []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, expr+"$"+strconv.Itoa(len(args)))
	}
	if filter.PlotID != "" {
		add("a.plot_id = ", filter.PlotID)
	}
	if filter.Status != "" {
		add("a.status = ", filter.Status)
	}
	if filter.Severity != "" {
		add("a.severity = ", filter.Severity)
	}
	if filter.AlertType != "" {
		add("a.alert_type = ", filter.AlertType)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY a.created_at DESC"

	rows, err := d.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertDelivered stamps delivered_at on the alert.
func (d *Database) MarkAlertDelivered(ctx context.Context, id string) (*model.Alert, error) {
	const q = `UPDATE alerts SET delivered_at = now() WHERE id = $1`
	res, err := d.ExecContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("mark alert delivered: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("mark alert delivered %s: %w", id, model.ErrNotFound)
	}
	return d.GetAlert(ctx, id)
}

// AcknowledgeAlert transitions an active alert to acknowledged. Terminal:
// only active alerts can be acknowledged.
func (d *Database) AcknowledgeAlert(ctx context.Context, id string) (*model.Alert, error) {
	return d.closeAlert(ctx, id, model.AlertStatusAcknowledged)
}

// DismissAlert transitions an active alert to dismissed. Terminal; dismissed
// alerts receive no further delivery.
func (d *Database) DismissAlert(ctx context.Context, id string) (*model.Alert, error) {
	return d.closeAlert(ctx, id, model.AlertStatusDismissed)
}

func (d *Database) closeAlert(ctx context.Context, id, status string) (*model.Alert, error) {
	const q = `UPDATE alerts SET status = $2, acknowledged_at = now() WHERE id = $1 AND status = 'active'`
	res, err := d.ExecContext(ctx, q, id, status)
	if err != nil {
		return nil, fmt.Errorf("update alert status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("update alert %s to %s: %w", id, status, model.ErrNotFound)
	}
	return d.GetAlert(ctx, id)
}

// GetAlertStats aggregates alert counts by status and severity.
func (d *Database) GetAlertStats(ctx context.Context) (*model.AlertStats, error) {
	const q = `
	SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE status = 'active'),
	       COUNT(*) FILTER (WHERE status = 'acknowledged'),
	       COUNT(*) FILTER (WHERE status = 'dismissed'),
	       COUNT(*) FILTER (WHERE severity = 'critical'),
	       COUNT(*) FILTER (WHERE severity = 'high'),
	       COUNT(*) FILTER (WHERE severity = 'medium'),
	       COUNT(*) FILTER (WHERE severity = 'low')
	FROM alerts`
	var s model.AlertStats
	err := d.QueryRowContext(ctx, q).Scan(
		&s.Total, &s.Active, &s.Acknowledged, &s.Dismissed,
		&s.Critical, &s.High, &s.Medium, &s.Low,
	)
	if err != nil {
		return nil, fmt.Errorf("alert stats: %w", err)
	}
	return &s, nil
}
