package delivery

import (
	"context"
	"fmt"
	"sync"

	"github.com/plotwatch/plotwatch/internal/alerting/metrics"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/alerting/policy"
	"github.com/rs/zerolog/log"
)

// Channel is a notification transport behind a uniform send contract.
// Implementations own their timeouts and retry policy.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert *model.Alert) (detail string, err error)
}

// Dispatcher selects channels per severity policy and plot preferences,
// invokes them concurrently, and joins the per-channel results. It never
// retries across channels; retry belongs inside each channel.
type Dispatcher struct {
	policy   *policy.Policy
	channels map[string]Channel
}

func NewDispatcher(pol *policy.Policy, channels ...Channel) *Dispatcher {
	if pol == nil {
		pol = policy.Default()
	}
	m := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		m[ch.Name()] = ch
	}
	return &Dispatcher{policy: pol, channels: m}
}

// Methods resolves the channel set for an alert: the severity policy table
// unioned with the plot's delivery preferences, deduplicated in order.
func (d *Dispatcher) Methods(severity model.Severity, plot *model.Plot) []string {
	methods := append([]string(nil), d.policy.ChannelsFor(severity)...)
	if plot != nil && plot.DeliveryPreferences != nil {
		methods = append(methods, plot.DeliveryPreferences.Methods...)
	}
	seen := make(map[string]bool, len(methods))
	out := methods[:0]
	for _, m := range methods {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Deliver fans the alert out to the channels selected for its severity and
// plot. A failing channel never blocks or aborts the others.
func (d *Dispatcher) Deliver(ctx context.Context, alert *model.Alert, plot *model.Plot) []model.DeliveryResult {
	return d.DeliverVia(ctx, alert, d.Methods(alert.Severity, plot))
}

// DeliverVia fans the alert out to the named channels concurrently and joins
// all results before returning.
func (d *Dispatcher) DeliverVia(ctx context.Context, alert *model.Alert, methods []string) []model.DeliveryResult {
	results := make([]model.DeliveryResult, len(methods))
	var wg sync.WaitGroup
	for i, method := range methods {
		ch, ok := d.channels[method]
		if !ok {
			log.Warn().Str("method", method).Msg("unknown delivery method")
			results[i] = model.DeliveryResult{
				Channel: method,
				Error:   fmt.Sprintf("unknown delivery method: %s", method),
			}
			metrics.DeliveryAttempts.WithLabelValues(method, "unknown").Inc()
			continue
		}
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = d.send(ctx, ch, alert)
		}(i, ch)
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, alert *model.Alert) model.DeliveryResult {
	detail, err := ch.Send(ctx, alert)
	if err != nil {
		cerr := &model.DeliveryChannelError{Channel: ch.Name(), Err: err}
		log.Error().Err(cerr).Str("alert_id", alert.ID).Msg("alert delivery failed")
		metrics.DeliveryAttempts.WithLabelValues(ch.Name(), "failure").Inc()
		return model.DeliveryResult{Channel: ch.Name(), Error: err.Error()}
	}
	log.Info().Str("alert_id", alert.ID).Str("channel", ch.Name()).Msg("alert delivered via channel")
	metrics.DeliveryAttempts.WithLabelValues(ch.Name(), "success").Inc()
	return model.DeliveryResult{Channel: ch.Name(), Success: true, Detail: detail}
}
