package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/config"
	"github.com/rs/zerolog/log"
)

const webhookSource = "plotwatch-alert-system"

// WebhookChannel posts alerts to a configured HTTP endpoint with exponential
// backoff retry. Timeout and retry counts come from config.
type WebhookChannel struct {
	cfg    config.WebhookConfig
	client *http.Client

	// sleepFn allows overriding backoff waits in tests
	sleepFn func(time.Duration)
}

func NewWebhookChannel(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.GetTimeout()},
		sleepFn: time.Sleep,
	}
}

func (w *WebhookChannel) Name() string { return "webhook" }

type webhookAlert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	PlotID    string    `json:"plot_id"`
	PlotName  string    `json:"plot_name,omitempty"`
	FarmName  string    `json:"farm_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type webhookPayload struct {
	Alert     webhookAlert `json:"alert"`
	Timestamp string       `json:"timestamp"`
	Source    string       `json:"source"`
}

// Send posts the alert payload, retrying transient failures with exponential
// backoff up to the configured attempt count.
func (w *WebhookChannel) Send(ctx context.Context, alert *model.Alert) (string, error) {
	if !w.cfg.Enabled {
		return "", errors.New("webhook delivery disabled")
	}
	if w.cfg.URL == "" {
		return "", errors.New("webhook URL not configured")
	}

	payload := webhookPayload{
		Alert: webhookAlert{
			ID:        alert.ID,
			Type:      string(alert.AlertType),
			Severity:  string(alert.Severity),
			Message:   alert.Message,
			PlotID:    alert.PlotID,
			PlotName:  alert.PlotName,
			FarmName:  alert.FarmName,
			CreatedAt: alert.CreatedAt,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    webhookSource,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal webhook payload: %w", err)
	}

	attempts := w.cfg.Retries
	if attempts < 1 {
		attempts = 1
	}
	delay := w.cfg.GetInitialDelay()
	maxDelay := w.cfg.GetMaxDelay()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := w.post(ctx, body)
		if err == nil {
			return fmt.Sprintf("status %d", status), nil
		}
		lastErr = err
		log.Warn().Err(err).
			Str("alert_id", alert.ID).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("webhook delivery attempt failed")
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		w.sleepFn(delay)
		delay = time.Duration(float64(delay) * w.cfg.Multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return "", fmt.Errorf("webhook delivery failed after %d attempts: %w", attempts, lastErr)
}

func (w *WebhookChannel) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookSource+"/1.0")
	if w.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", w.cfg.APIKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("non-2xx response %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
