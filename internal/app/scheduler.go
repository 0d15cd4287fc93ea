package app

import (
	"context"
	"time"

	"github.com/zenbeauty/salon-assistant/internal/service"
	"go.uber.org/zap"
)

// Scheduler runs background maintenance tasks.
type Scheduler struct {
	windowService *service.WindowService
	logger        *zap.Logger
	stopChan      chan struct{}
}

func NewScheduler(windowService *service.WindowService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		windowService: windowService,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start launches the background tasks.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runWindowRebuildTask(ctx)
}

// Stop stops the background tasks.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runWindowRebuildTask keeps the rolling availability window topped up.
// The first rebuild happens at startup so an empty database gets seeded
// before the bot accepts traffic.
func (s *Scheduler) runWindowRebuildTask(ctx context.Context) {
	s.rebuildWindow(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.rebuildWindow(ctx)
		case <-s.stopChan:
			s.logger.Info("Window rebuild task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Window rebuild task cancelled")
			return
		}
	}
}

func (s *Scheduler) rebuildWindow(ctx context.Context) {
	s.logger.Info("Starting slot window rebuild")

	if err := s.windowService.Rebuild(ctx); err != nil {
		s.logger.Error("Failed to rebuild slot window", zap.Error(err))
		return
	}

	s.logger.Info("Slot window rebuild completed successfully")
}
