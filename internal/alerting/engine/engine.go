package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/plotwatch/plotwatch/internal/alerting/metrics"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/alerting/policy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// PlotStore provides the plot lookups and status writes the engine needs.
// Missing plots are reported as (nil, nil).
type PlotStore interface {
	GetPlot(ctx context.Context, id string) (*model.Plot, error)
	SetPlotStatus(ctx context.Context, id string, status model.PlotStatus) error
}

// AlertStore provides alert persistence. CreateAlert must be safe under
// concurrent duplicate facts: on a conflict with an existing active alert for
// the same condition key it returns that alert with created=false.
type AlertStore interface {
	FindDuplicateAlert(ctx context.Context, plotID string, metric model.Metric, severity model.Severity, dir model.Direction, threshold float64) (*model.Alert, error)
	FindActiveAlertForCondition(ctx context.Context, plotID string, metric model.Metric, dir model.Direction, threshold float64) (*model.Alert, error)
	CreateAlert(ctx context.Context, fact model.AlertFact) (alert *model.Alert, created bool, err error)
	GetAlert(ctx context.Context, id string) (*model.Alert, error)
	MarkAlertDelivered(ctx context.Context, id string) (*model.Alert, error)
}

// Deliverer fans an alert out to notification channels.
type Deliverer interface {
	Deliver(ctx context.Context, alert *model.Alert, plot *model.Plot) []model.DeliveryResult
	DeliverVia(ctx context.Context, alert *model.Alert, methods []string) []model.DeliveryResult
}

// Engine is the stateless alert evaluation pipeline. It holds only injected
// collaborators; all state lives in the stores.
type Engine struct {
	plots      PlotStore
	alerts     AlertStore
	dedup      Deduplicator
	deliverer  Deliverer
	classifier Classifier
	defaults   policy.Defaults
}

func New(plots PlotStore, alerts AlertStore, deliverer Deliverer, pol *policy.Policy) *Engine {
	if pol == nil {
		pol = policy.Default()
	}
	return &Engine{
		plots:      plots,
		alerts:     alerts,
		dedup:      NewDeduplicator(alerts),
		deliverer:  deliverer,
		classifier: NewClassifier(pol.Severity),
		defaults:   pol.Defaults,
	}
}

// ProcessReading runs the full pipeline for one reading: plot lookup,
// evaluation, dedup-create, delivery, status rollup. Steps are best-effort
// and non-transactional; delivery failures are absorbed, persistence
// failures propagate to the caller.
func (e *Engine) ProcessReading(ctx context.Context, reading model.SensorReading) error {
	timer := prometheus.NewTimer(metrics.ProcessDuration)
	defer timer.ObserveDuration()

	if err := reading.Validate(); err != nil {
		return err
	}

	plot, err := e.plots.GetPlot(ctx, reading.PlotID)
	if err != nil {
		metrics.ReadingsProcessed.WithLabelValues("error").Inc()
		return fmt.Errorf("get plot %s: %w", reading.PlotID, err)
	}
	if plot == nil {
		// Orphan readings are dropped, not escalated.
		log.Warn().Str("plot_id", reading.PlotID).Msg("plot not found for sensor reading")
		metrics.ReadingsProcessed.WithLabelValues("orphan").Inc()
		return nil
	}

	thresholds := plot.Thresholds()
	if thresholds.Empty() && e.defaults.Apply {
		thresholds = e.defaults.Thresholds
	}

	facts := Evaluate(reading, thresholds, e.classifier)
	for _, fact := range facts {
		metrics.FactsEmitted.WithLabelValues(string(fact.AlertType), string(fact.Severity)).Inc()
		if _, err := e.createAlert(ctx, fact, plot); err != nil {
			metrics.ReadingsProcessed.WithLabelValues("error").Inc()
			return err
		}
	}

	status := AggregateStatus(facts)
	if err := e.plots.SetPlotStatus(ctx, plot.ID, status); err != nil {
		metrics.ReadingsProcessed.WithLabelValues("error").Inc()
		return fmt.Errorf("set plot status: %w", err)
	}

	metrics.ReadingsProcessed.WithLabelValues("processed").Inc()
	log.Info().
		Str("plot_id", plot.ID).
		Int("alerts", len(facts)).
		Str("status", string(status)).
		Msg("processed sensor reading")
	return nil
}

// createAlert persists a fact unless the deduplicator suppresses it, and
// dispatches delivery for newly created alerts. Suppressed duplicates return
// the existing alert so callers can observe the check happened.
func (e *Engine) createAlert(ctx context.Context, fact model.AlertFact, plot *model.Plot) (*model.Alert, error) {
	existing, create, err := e.dedup.ShouldCreate(ctx, fact)
	if err != nil {
		return nil, err
	}
	if !create {
		metrics.AlertsSuppressed.Inc()
		return existing, nil
	}

	alert, created, err := e.alerts.CreateAlert(ctx, fact)
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	if !created {
		// Lost the check-then-create race; the unique active index resolved it.
		metrics.AlertsSuppressed.Inc()
		return alert, nil
	}
	metrics.AlertsCreated.WithLabelValues(string(fact.AlertType), string(fact.Severity)).Inc()
	alert.PlotName = plot.Name
	alert.FarmName = plot.FarmName

	log.Info().
		Str("alert_id", alert.ID).
		Str("plot_id", fact.PlotID).
		Str("alert_type", string(fact.AlertType)).
		Str("severity", string(fact.Severity)).
		Str("condition", fact.Condition).
		Msg("created alert")

	// Delivery must survive request cancellation; inconsistent created-but-
	// undelivered state is recoverable via the retry endpoint.
	e.deliverAlert(context.WithoutCancel(ctx), alert, plot)
	return alert, nil
}

// deliverAlert fans out to channels and records the delivered timestamp when
// at least one channel succeeded. All-channel failure is logged, never fatal.
func (e *Engine) deliverAlert(ctx context.Context, alert *model.Alert, plot *model.Plot) []model.DeliveryResult {
	results := e.deliverer.Deliver(ctx, alert, plot)
	e.recordDelivery(ctx, alert, results)
	return results
}

// RetryDelivery re-dispatches an existing alert through the given methods,
// or through the severity policy's channels when none are given. Only active
// alerts are eligible: acknowledged and dismissed are terminal states and get
// no further delivery.
func (e *Engine) RetryDelivery(ctx context.Context, alertID string, methods []string) ([]model.DeliveryResult, error) {
	alert, err := e.alerts.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("get alert %s: %w", alertID, err)
	}
	if alert == nil {
		return nil, model.ErrNotFound
	}
	if alert.Status != model.AlertStatusActive {
		return nil, model.NewValidationError("alert is " + alert.Status + "; only active alerts can be redelivered")
	}
	plot, err := e.plots.GetPlot(ctx, alert.PlotID)
	if err != nil {
		return nil, fmt.Errorf("get plot %s: %w", alert.PlotID, err)
	}

	var results []model.DeliveryResult
	if len(methods) > 0 {
		results = e.deliverer.DeliverVia(ctx, alert, methods)
		e.recordDelivery(ctx, alert, results)
	} else if plot != nil {
		results = e.deliverAlert(ctx, alert, plot)
	} else {
		results = e.deliverer.DeliverVia(ctx, alert, nil)
		e.recordDelivery(ctx, alert, results)
	}
	return results, nil
}

func (e *Engine) recordDelivery(ctx context.Context, alert *model.Alert, results []model.DeliveryResult) {
	if model.AnySuccess(results) {
		if _, err := e.alerts.MarkAlertDelivered(ctx, alert.ID); err != nil {
			log.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to mark alert delivered")
		}
		var ok []string
		for _, r := range results {
			if r.Success {
				ok = append(ok, r.Channel)
			}
		}
		log.Info().Str("alert_id", alert.ID).Str("channels", strings.Join(ok, ",")).Msg("alert delivered")
		return
	}
	if len(results) > 0 {
		log.Error().Str("alert_id", alert.ID).Msg("all delivery channels failed")
	}
}
