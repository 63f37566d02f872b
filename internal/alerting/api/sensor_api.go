package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/rs/zerolog/log"
)

type sensorDataRequest struct {
	PlotID       string     `json:"plot_id" binding:"required,uuid"`
	Temperature  *float64   `json:"temperature" binding:"required"`
	Humidity     *float64   `json:"humidity" binding:"required"`
	SoilMoisture *float64   `json:"soil_moisture" binding:"required"`
	Timestamp    *time.Time `json:"timestamp"`
}

// CreateSensorData ingests one reading: validate, duplicate-submission guard,
// persist, then run the alert pipeline synchronously.
func (api *Api) CreateSensorData(c *gin.Context) {
	var req sensorDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	reading := model.SensorReading{
		PlotID:       req.PlotID,
		Temperature:  *req.Temperature,
		Humidity:     *req.Humidity,
		SoilMoisture: *req.SoilMoisture,
		Timestamp:    time.Now().UTC(),
	}
	if req.Timestamp != nil {
		reading.Timestamp = req.Timestamp.UTC()
	}
	if err := reading.Validate(); err != nil {
		respondFromError(c, err)
		return
	}

	ctx := c.Request.Context()
	fresh, err := api.deps.Cache.TryMarkReading(ctx, reading)
	if err != nil {
		log.Warn().Err(err).Msg("reading idempotency check failed; continuing")
	}
	if !fresh {
		respondData(c, http.StatusAccepted, gin.H{"duplicate": true})
		return
	}

	id, err := api.deps.DB.InsertReading(ctx, reading)
	if err != nil {
		respondFromError(c, err)
		return
	}
	reading.ID = id

	if err := api.deps.Engine.ProcessReading(ctx, reading); err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, http.StatusCreated, reading)
}

// GetLatestSensorData serves the most recent stored reading for a plot.
func (api *Api) GetLatestSensorData(c *gin.Context) {
	plotID := c.Param("plotID")
	reading, err := api.deps.DB.GetLatestReading(c.Request.Context(), plotID)
	if err != nil {
		respondFromError(c, err)
		return
	}
	if reading == nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no sensor data for plot")
		return
	}
	respondData(c, http.StatusOK, reading)
}

// GetPlotStatus serves the plot health state, preferring the cache.
func (api *Api) GetPlotStatus(c *gin.Context) {
	plotID := c.Param("plotID")
	ctx := c.Request.Context()

	if status, ok, err := api.deps.Cache.GetPlotStatus(ctx, plotID); err == nil && ok {
		respondData(c, http.StatusOK, gin.H{"plot_id": plotID, "status": status})
		return
	}

	plot, err := api.deps.DB.GetPlot(ctx, plotID)
	if err != nil {
		respondFromError(c, err)
		return
	}
	if plot == nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "plot not found")
		return
	}
	respondData(c, http.StatusOK, gin.H{"plot_id": plotID, "status": plot.Status})
}
