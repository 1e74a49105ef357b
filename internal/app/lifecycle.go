package app

import (
	"context"

	"pedidotrack.io/tracker/internal/pkg/logger"
)

// Start starts the background reconciliation loop.
func (a *Application) Start(ctx context.Context) error {
	a.Scheduler.Start(ctx)
	logger.Info("Reconciliation scheduler started")
	return nil
}

// Shutdown gracefully shuts down all application components.
func (a *Application) Shutdown() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Pools != nil {
		a.Pools.Shutdown()
	}
}
