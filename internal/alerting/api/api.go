package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plotwatch/plotwatch/internal/alerting/cache"
	"github.com/plotwatch/plotwatch/internal/alerting/database"
	"github.com/plotwatch/plotwatch/internal/alerting/delivery"
	"github.com/plotwatch/plotwatch/internal/alerting/engine"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps holds the collaborators the HTTP surface needs.
type Deps struct {
	DB         *database.Database
	Engine     *engine.Engine
	Dispatcher *delivery.Dispatcher
	Cache      cache.ReadingCache
	Cfg        *config.Config
}

type Api struct {
	deps Deps
}

// NewApi registers all alerting routes on the router.
func NewApi(router *gin.Engine, deps Deps) *Api {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	api := &Api{deps: deps}
	api.setupRouters(router)
	return api
}

func (api *Api) setupRouters(router *gin.Engine) {
	router.GET("/healthz", api.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/sensor-data", api.CreateSensorData)
		v1.GET("/sensor-data/plot/:plotID/latest", api.GetLatestSensorData)
		v1.GET("/plots/:plotID/status", api.GetPlotStatus)

		v1.GET("/alerts", api.ListAlerts)
		v1.GET("/alerts/active", api.ListActiveAlerts)
		v1.GET("/alerts/stats", api.GetAlertStats)
		v1.GET("/alerts/:alertID", api.GetAlert)
		v1.POST("/alerts/:alertID/acknowledge", api.AcknowledgeAlert)
		v1.POST("/alerts/:alertID/dismiss", api.DismissAlert)

		v1.GET("/alert-delivery/config", api.GetDeliveryConfig)
		v1.POST("/alert-delivery/test", api.TestDelivery)
		v1.POST("/alert-delivery/retry/:alertID", api.RetryDelivery)
	}
}

func (api *Api) Healthz(c *gin.Context) {
	if err := api.deps.DB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondFromError maps engine and store errors onto the error taxonomy.
func respondFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case model.IsValidation(err):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "PERSISTENCE_ERROR", err.Error())
	}
}
