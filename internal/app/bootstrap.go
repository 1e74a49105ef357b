// Package app is the composition root: it wires the store, engine, scheduler,
// services, and HTTP layer together. Bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"pedidotrack.io/tracker/internal/api/handlers"
	"pedidotrack.io/tracker/internal/blob"
	"pedidotrack.io/tracker/internal/config"
	"pedidotrack.io/tracker/internal/domain"
	"pedidotrack.io/tracker/internal/engine"
	"pedidotrack.io/tracker/internal/notification"
	"pedidotrack.io/tracker/internal/pkg/worker"
	"pedidotrack.io/tracker/internal/scheduler"
	"pedidotrack.io/tracker/internal/service"
	"pedidotrack.io/tracker/internal/store"
)

// Application holds composed application dependencies.
type Application struct {
	Config    *config.Config
	Router    *gin.Engine
	Scheduler *scheduler.Scheduler
	Pools     *worker.Pools
}

// Bootstrap initializes all dependencies using manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		BlobPoolSize:    cfg.Worker.BlobPoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	sheets, err := store.NewSheetsStore(ctx, store.SheetsConfig{
		SpreadsheetID:   cfg.Sheet.SpreadsheetID,
		SheetName:       cfg.Sheet.SheetName,
		CredentialsFile: cfg.Sheet.CredentialsFile,
		Timeout:         cfg.Sheet.OperationTimeout,
	})
	if err != nil {
		pools.Shutdown()
		return nil, fmt.Errorf("init sheets store: %w", err)
	}
	cached := store.NewCachedStore(sheets, cfg.Sheet.CacheTTL)

	objStore, err := blob.NewS3Client(ctx, blob.S3Config{
		Bucket:          cfg.Blob.Bucket,
		Region:          cfg.Blob.Region,
		Endpoint:        cfg.Blob.Endpoint,
		AccessKeyID:     cfg.Blob.AccessKeyID,
		SecretAccessKey: cfg.Blob.SecretAccessKey,
		Timeout:         cfg.Blob.OperationTimeout,
	})
	if err != nil {
		pools.Shutdown()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	dispatcher := domain.NewEventDispatcher()
	inbox := notification.NewInboxSender(0)
	notification.NewTriggers(inbox).RegisterOn(dispatcher)

	loc := cfg.Location()
	eng := engine.New(cached, dispatcher, loc, cfg.Engine.EscalationAfter)
	sched := scheduler.New(cached, eng, dispatcher, loc, cfg.Scheduler.Interval).
		WithPool(pools.General)

	orders := service.NewOrderService(sched, eng)
	resolver := blob.NewResolver(objStore, cfg.Blob.BasePath, cfg.Blob.ListCap, cfg.Blob.ScanCap)
	attachments := service.NewAttachmentService(resolver, objStore, cfg.Blob.BasePath, orders, pools.Blob)

	server := handlers.NewServer(handlers.ServerDeps{
		Orders:      orders,
		Attachments: attachments,
		Inbox:       inbox,
		Scheduler:   sched,
	})

	return &Application{
		Config:    cfg,
		Router:    newRouter(cfg, server),
		Scheduler: sched,
		Pools:     pools,
	}, nil
}
