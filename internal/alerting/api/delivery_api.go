package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
)

// GetDeliveryConfig exposes the non-secret view of delivery configuration.
func (api *Api) GetDeliveryConfig(c *gin.Context) {
	cfg := api.deps.Cfg.Alerting
	respondData(c, http.StatusOK, gin.H{
		"email": gin.H{
			"enabled":    cfg.Email.Enabled,
			"from":       cfg.Email.From,
			"recipients": cfg.Email.Recipients,
		},
		"webhook": gin.H{
			"enabled": cfg.Webhook.Enabled,
			"timeout": cfg.Webhook.GetTimeout().String(),
			"retries": cfg.Webhook.Retries,
		},
	})
}

type testDeliveryRequest struct {
	Methods   []string       `json:"methods"`
	TestAlert *testAlertBody `json:"test_alert"`
}

type testAlertBody struct {
	AlertType string `json:"alert_type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	PlotName  string `json:"plot_name"`
	FarmName  string `json:"farm_name"`
}

// TestDelivery synthesizes a test alert and runs it through the dispatcher,
// returning per-channel results and a summary. Nothing is persisted.
func (api *Api) TestDelivery(c *gin.Context) {
	var req testDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if len(req.Methods) == 0 {
		req.Methods = []string{"email", "webhook"}
	}

	alert := &model.Alert{
		ID:        "test-alert-" + uuid.NewString(),
		AlertType: model.MetricTemperature,
		Severity:  model.SeverityMedium,
		Message:   "This is a test alert from the plot monitoring system",
		PlotID:    "test-plot",
		PlotName:  "Test Plot",
		FarmName:  "Test Farm",
		Status:    model.AlertStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if req.TestAlert != nil {
		if req.TestAlert.AlertType != "" {
			alert.AlertType = model.Metric(req.TestAlert.AlertType)
		}
		if req.TestAlert.Severity != "" {
			if !model.Severity(req.TestAlert.Severity).Valid() {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid severity")
				return
			}
			alert.Severity = model.Severity(req.TestAlert.Severity)
		}
		if req.TestAlert.Message != "" {
			alert.Message = req.TestAlert.Message
		}
		if req.TestAlert.PlotName != "" {
			alert.PlotName = req.TestAlert.PlotName
		}
		if req.TestAlert.FarmName != "" {
			alert.FarmName = req.TestAlert.FarmName
		}
	}

	results := api.deps.Dispatcher.DeliverVia(c.Request.Context(), alert, req.Methods)
	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	respondData(c, http.StatusOK, gin.H{
		"alert":   alert,
		"results": results,
		"summary": gin.H{
			"total":      len(results),
			"successful": successful,
			"failed":     len(results) - successful,
		},
	})
}

type retryDeliveryRequest struct {
	Methods []string `json:"methods"`
}

// RetryDelivery re-dispatches an existing alert through the requested
// channels, defaulting to the severity policy's selection.
func (api *Api) RetryDelivery(c *gin.Context) {
	var req retryDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	results, err := api.deps.Engine.RetryDelivery(c.Request.Context(), c.Param("alertID"), req.Methods)
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"alert_id":  c.Param("alertID"),
		"results":   results,
		"delivered": model.AnySuccess(results),
	})
}
