package background

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/repository/recompute"
)

type BackgroundTasks struct {
	// Scheduler nil на не-назначенных инстансах
	Scheduler *recompute.Scheduler
	Watchdog  *recompute.Watchdog
	Relay     *recompute.OutboxRelay
	Worker    *recompute.Worker
	Logger    *slog.Logger
}

func NewBackgroundTasks(
	scheduler *recompute.Scheduler,
	watchdog *recompute.Watchdog,
	relay *recompute.OutboxRelay,
	worker *recompute.Worker,
	logger *slog.Logger,
) *BackgroundTasks {
	return &BackgroundTasks{
		Scheduler: scheduler,
		Watchdog:  watchdog,
		Relay:     relay,
		Worker:    worker,
		Logger:    logger,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	if bt.Scheduler != nil {
		go bt.Scheduler.Start(ctx)
	}
	go bt.Watchdog.Start(ctx)
	go bt.Relay.Start(ctx)
	go func() {
		if err := bt.Worker.Start(ctx); err != nil {
			bt.Logger.Error("Recompute worker stopped", "error", err)
		}
	}()
}
