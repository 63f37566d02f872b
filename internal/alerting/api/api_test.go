package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/plotwatch/plotwatch/internal/alerting/database"
	"github.com/plotwatch/plotwatch/internal/alerting/delivery"
	"github.com/plotwatch/plotwatch/internal/alerting/engine"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/alerting/policy"
	"github.com/plotwatch/plotwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCache struct {
	fresh  bool
	status model.PlotStatus
	hit    bool
}

func (s *stubCache) TryMarkReading(ctx context.Context, r model.SensorReading) (bool, error) {
	return s.fresh, nil
}

func (s *stubCache) SetPlotStatus(ctx context.Context, plotID string, status model.PlotStatus) error {
	return nil
}

func (s *stubCache) GetPlotStatus(ctx context.Context, plotID string) (model.PlotStatus, bool, error) {
	return s.status, s.hit, nil
}

type stubPlotStore struct {
	plot *model.Plot
}

func (s *stubPlotStore) GetPlot(ctx context.Context, id string) (*model.Plot, error) {
	return s.plot, nil
}

func (s *stubPlotStore) SetPlotStatus(ctx context.Context, id string, status model.PlotStatus) error {
	return nil
}

type stubAlertStore struct{}

func (stubAlertStore) FindDuplicateAlert(ctx context.Context, plotID string, metric model.Metric, severity model.Severity, dir model.Direction, threshold float64) (*model.Alert, error) {
	return nil, nil
}

func (stubAlertStore) FindActiveAlertForCondition(ctx context.Context, plotID string, metric model.Metric, dir model.Direction, threshold float64) (*model.Alert, error) {
	return nil, nil
}

func (stubAlertStore) CreateAlert(ctx context.Context, fact model.AlertFact) (*model.Alert, bool, error) {
	return &model.Alert{ID: "alert-1", Status: model.AlertStatusActive}, true, nil
}

func (stubAlertStore) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	return nil, nil
}

func (stubAlertStore) MarkAlertDelivered(ctx context.Context, id string) (*model.Alert, error) {
	return nil, nil
}

type stubDeliverer struct{}

func (stubDeliverer) Deliver(ctx context.Context, alert *model.Alert, plot *model.Plot) []model.DeliveryResult {
	return nil
}

func (stubDeliverer) DeliverVia(ctx context.Context, alert *model.Alert, methods []string) []model.DeliveryResult {
	return nil
}

type testServer struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
}

func newTestServer(t *testing.T, cache *stubCache, plots engine.PlotStore) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	wrapped := database.NewWithDB(db)
	if plots == nil {
		plots = &stubPlotStore{}
	}
	eng := engine.New(plots, stubAlertStore{}, stubDeliverer{}, policy.Default())

	cfg := &config.Config{
		Alerting: config.AlertingConfig{
			Email: config.EmailConfig{
				Enabled:    true,
				Password:   "secret",
				From:       "alerts@plotwatch.io",
				Recipients: []string{"ops@example.com"},
			},
			Webhook: config.WebhookConfig{Enabled: true, URL: "https://hooks.example.com/x", APIKey: "secret", Retries: 3},
		},
	}

	router := gin.New()
	NewApi(router, Deps{
		DB:         wrapped,
		Engine:     eng,
		Dispatcher: delivery.NewDispatcher(policy.Default()),
		Cache:      cache,
		Cfg:        cfg,
	})
	return &testServer{router: router, mock: mock}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func validReadingBody() map[string]any {
	return map[string]any{
		"plot_id":       "a2e8f6de-9e54-4f5a-b1ab-3bdfcabb2cf5",
		"temperature":   25.0,
		"humidity":      60.0,
		"soil_moisture": 45.0,
	}
}

func TestCreateSensorData_BadBody(t *testing.T) {
	srv := newTestServer(t, &stubCache{fresh: true}, nil)

	body := validReadingBody()
	delete(body, "temperature")
	rec := srv.do(http.MethodPost, "/v1/sensor-data", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestCreateSensorData_RejectsNonUUIDPlot(t *testing.T) {
	srv := newTestServer(t, &stubCache{fresh: true}, nil)

	body := validReadingBody()
	body["plot_id"] = "plot-1"
	rec := srv.do(http.MethodPost, "/v1/sensor-data", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSensorData_RejectsOutOfRange(t *testing.T) {
	srv := newTestServer(t, &stubCache{fresh: true}, nil)

	body := validReadingBody()
	body["humidity"] = 140.0
	rec := srv.do(http.MethodPost, "/v1/sensor-data", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestCreateSensorData_DuplicateSubmission(t *testing.T) {
	srv := newTestServer(t, &stubCache{fresh: false}, nil)

	rec := srv.do(http.MethodPost, "/v1/sensor-data", validReadingBody())
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicate":true`)
}

func TestCreateSensorData_PersistsAndProcesses(t *testing.T) {
	srv := newTestServer(t, &stubCache{fresh: true}, nil)
	srv.mock.ExpectExec(`INSERT INTO sensor_data`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// stub plot store returns no plot, so the pipeline drops the reading
	// as an orphan after persisting it
	rec := srv.do(http.MethodPost, "/v1/sensor-data", validReadingBody())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetPlotStatus_CacheHit(t *testing.T) {
	srv := newTestServer(t, &stubCache{status: model.PlotCritical, hit: true}, nil)

	rec := srv.do(http.MethodGet, "/v1/plots/plot-1/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"critical"`)
}

func TestGetPlotStatus_NotFound(t *testing.T) {
	srv := newTestServer(t, &stubCache{}, nil)
	srv.mock.ExpectQuery(`SELECT p\.id, p\.farm_id`).WillReturnError(sql.ErrNoRows)

	rec := srv.do(http.MethodGet, "/v1/plots/missing/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestListAlerts_InvalidSeverity(t *testing.T) {
	srv := newTestServer(t, &stubCache{}, nil)

	rec := srv.do(http.MethodGet, "/v1/alerts?severity=urgent", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid severity")
}

func TestAcknowledgeAlert_NotFound(t *testing.T) {
	srv := newTestServer(t, &stubCache{}, nil)
	srv.mock.ExpectExec(`UPDATE alerts SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := srv.do(http.MethodPost, "/v1/alerts/missing/acknowledge", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDeliveryConfig_HidesSecrets(t *testing.T) {
	srv := newTestServer(t, &stubCache{}, nil)

	rec := srv.do(http.MethodGet, "/v1/alert-delivery/config", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), "ops@example.com")
}

func TestTestDelivery_ReportsSummary(t *testing.T) {
	srv := newTestServer(t, &stubCache{}, nil)

	// no channels registered, so both default methods fail as unknown
	rec := srv.do(http.MethodPost, "/v1/alert-delivery/test", map[string]any{})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Summary struct {
				Total      int `json:"total"`
				Successful int `json:"successful"`
				Failed     int `json:"failed"`
			} `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Summary.Total)
	assert.Equal(t, 0, resp.Data.Summary.Successful)
	assert.Equal(t, 2, resp.Data.Summary.Failed)
}

func TestTestDelivery_InvalidSeverity(t *testing.T) {
	srv := newTestServer(t, &stubCache{}, nil)

	rec := srv.do(http.MethodPost, "/v1/alert-delivery/test", map[string]any{
		"test_alert": map[string]any{"severity": "urgent"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetryDelivery_UnknownAlert(t *testing.T) {
	srv := newTestServer(t, &stubCache{}, nil)

	rec := srv.do(http.MethodPost, "/v1/alert-delivery/retry/missing", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
