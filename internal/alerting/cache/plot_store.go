package cache

import (
	"context"

	"github.com/plotwatch/plotwatch/internal/alerting/engine"
	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/rs/zerolog/log"
)

// PlotStatusWriteThrough decorates a PlotStore so status writes also land in
// the cache. Cache failures are logged and ignored; the database remains the
// source of truth.
type PlotStatusWriteThrough struct {
	Store engine.PlotStore
	Cache ReadingCache
}

func (w PlotStatusWriteThrough) GetPlot(ctx context.Context, id string) (*model.Plot, error) {
	return w.Store.GetPlot(ctx, id)
}

func (w PlotStatusWriteThrough) SetPlotStatus(ctx context.Context, id string, status model.PlotStatus) error {
	if err := w.Store.SetPlotStatus(ctx, id, status); err != nil {
		return err
	}
	if err := w.Cache.SetPlotStatus(ctx, id, status); err != nil {
		log.Warn().Err(err).Str("plot_id", id).Msg("plot status cache update failed")
	}
	return nil
}
