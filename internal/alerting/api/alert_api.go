package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plotwatch/plotwatch/internal/alerting/database"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
)

// ListAlerts returns alerts filtered by plot_id, status, severity and
// alert_type query params, newest first.
func (api *Api) ListAlerts(c *gin.Context) {
	filter := database.AlertFilter{
		PlotID:    c.Query("plot_id"),
		Status:    c.Query("status"),
		Severity:  c.Query("severity"),
		AlertType: c.Query("alert_type"),
	}
	if filter.Severity != "" && !model.Severity(filter.Severity).Valid() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid severity")
		return
	}
	alerts, err := api.deps.DB.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, http.StatusOK, alerts)
}

func (api *Api) ListActiveAlerts(c *gin.Context) {
	alerts, err := api.deps.DB.ListAlerts(c.Request.Context(), database.AlertFilter{Status: model.AlertStatusActive})
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, http.StatusOK, alerts)
}

func (api *Api) GetAlert(c *gin.Context) {
	alert, err := api.deps.DB.GetAlert(c.Request.Context(), c.Param("alertID"))
	if err != nil {
		respondFromError(c, err)
		return
	}
	if alert == nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "alert not found")
		return
	}
	respondData(c, http.StatusOK, alert)
}

func (api *Api) GetAlertStats(c *gin.Context) {
	stats, err := api.deps.DB.GetAlertStats(c.Request.Context())
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}

// AcknowledgeAlert closes out an active alert. Terminal transition.
func (api *Api) AcknowledgeAlert(c *gin.Context) {
	alert, err := api.deps.DB.AcknowledgeAlert(c.Request.Context(), c.Param("alertID"))
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, http.StatusOK, alert)
}

// DismissAlert closes out an active alert with no further delivery.
func (api *Api) DismissAlert(c *gin.Context) {
	alert, err := api.deps.DB.DismissAlert(c.Request.Context(), c.Param("alertID"))
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, http.StatusOK, alert)
}
