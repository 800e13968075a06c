package app

import (
	"context"
	"time"

	"github.com/lessonhub/booking_service/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	reminderService *service.ReminderService
	interval        time.Duration
	logger          *zap.Logger
	stopChan        chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(reminderService *service.ReminderService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reminderService: reminderService,
		interval:        interval,
		logger:          logger,
		stopChan:        make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("interval", s.interval))

	go s.runReminderTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runReminderTask периодически запускает диспетчер напоминаний
func (s *Scheduler) runReminderTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.dispatchReminders(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatchReminders(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder dispatch task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reminder dispatch task cancelled")
			return
		}
	}
}

// dispatchReminders запускает один проход диспетчера
func (s *Scheduler) dispatchReminders(ctx context.Context) {
	// Внешний cron может запускать диспетчер параллельно с нами,
	// это безопасно: стадия атомарно забирается при отправке
	runCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	summary, err := s.reminderService.Dispatch(runCtx)
	if err != nil {
		s.logger.Error("Reminder dispatch failed", zap.Error(err))
		return
	}

	if summary.TotalSent() > 0 || summary.TotalFailed() > 0 {
		s.logger.Info("Reminder dispatch completed",
			zap.Int("sent", summary.TotalSent()),
			zap.Int("failed", summary.TotalFailed()))
	}
}
