package planner

import (
	"context"

	"github.com/fdg312/dietplan/internal/acquisition"
	"github.com/fdg312/dietplan/internal/ai"
	"github.com/fdg312/dietplan/internal/catalog"
	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/metrics"
)

// FromConfig wires the configured provider behind one process-wide call
// gate, the acquisition engine and the catalog at CATALOG_PATH.
func FromConfig(ctx context.Context, cfg *config.Config, catalogs *catalog.Registry, log *logger.Logger, m *metrics.Metrics) (*Planner, error) {
	log = logger.OrNop(log)
	if catalogs == nil {
		catalogs = catalog.NewRegistry(log)
	}

	provider, err := ai.NewProvider(ctx, cfg, ai.NewGate(cfg.Gate.Interval()), log, m)
	if err != nil {
		return nil, err
	}
	engine := acquisition.New(provider, acquisition.Options{
		Config:   cfg.Acquisition,
		Defaults: ai.RequestDefaults(cfg),
		Log:      log,
		Metrics:  m,
	})
	return New(engine, Options{
		Catalog:   catalogs.Get(cfg.CatalogPath),
		SlotCap:   cfg.CatalogSlotCap,
		Tolerance: cfg.Acquisition.CalorieToleranceKcal,
		Timeout:   cfg.PlanTimeout(),
		Log:       log,
	}), nil
}
