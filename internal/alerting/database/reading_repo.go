package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
)

// InsertReading persists a sensor reading and returns its assigned id.
func (d *Database) InsertReading(ctx context.Context, r model.SensorReading) (string, error) {
	const q = `
	INSERT INTO sensor_data (id, plot_id, temperature, humidity, soil_moisture, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	id := uuid.NewString()
	_, err := d.ExecContext(ctx, q, id, r.PlotID, r.Temperature, r.Humidity, r.SoilMoisture, r.Timestamp)
	if err != nil {
		return "", fmt.Errorf("insert reading: %w", err)
	}
	return id, nil
}

// GetLatestReading returns the most recent reading for a plot, or (nil, nil).
func (d *Database) GetLatestReading(ctx context.Context, plotID string) (*model.SensorReading, error) {
	const q = `
	SELECT id, plot_id, temperature, humidity, soil_moisture, recorded_at
	FROM sensor_data
	WHERE plot_id = $1
	ORDER BY recorded_at DESC
	LIMIT 1`
	var r model.SensorReading
	err := d.QueryRowContext(ctx, q, plotID).Scan(
		&r.ID, &r.PlotID, &r.Temperature, &r.Humidity, &r.SoilMoisture, &r.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest reading: %w", err)
	}
	return &r, nil
}
