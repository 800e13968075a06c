package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lessonhub/booking_service/internal/model"
	"github.com/lessonhub/booking_service/internal/notify"
	"go.uber.org/zap"
)

// ReminderService dispatches the staged reminders. It is driven by the
// in-process scheduler and by the external trigger endpoint, possibly at
// the same time: the per-stage claim in the reservation store is the sole
// arbiter of who sends, so overlapping runs never double-send.
type ReminderService struct {
	reservationStore ReservationStore
	sender           notify.Sender
	renderer         *notify.Renderer
	sendTimeout      time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewReminderService(
	reservationStore ReservationStore,
	sender notify.Sender,
	renderer *notify.Renderer,
	sendTimeout time.Duration,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		reservationStore: reservationStore,
		sender:           sender,
		renderer:         renderer,
		sendTimeout:      sendTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// StageResult is the outcome of one stage within a dispatch run.
type StageResult struct {
	Stage          model.ReminderStage `json:"stage"`
	Sent           int                 `json:"sent"`
	Failed         int                 `json:"failed"`
	ReservationIDs []uuid.UUID         `json:"reservation_ids"`
}

// DispatchSummary is the per-run report returned to the trigger.
type DispatchSummary struct {
	RanAt  time.Time     `json:"ran_at"`
	Stages []StageResult `json:"stages"`
}

// TotalSent суммирует отправленные напоминания по всем стадиям
func (s *DispatchSummary) TotalSent() int {
	total := 0
	for _, stage := range s.Stages {
		total += stage.Sent
	}
	return total
}

// TotalFailed суммирует неудачные отправки по всем стадиям
func (s *DispatchSummary) TotalFailed() int {
	total := 0
	for _, stage := range s.Stages {
		total += stage.Failed
	}
	return total
}

// Dispatch runs one pass over all three stages. Safe to invoke repeatedly
// and concurrently; only storage failure on candidate selection is
// returned as an error, individual send failures end up in the summary.
func (s *ReminderService) Dispatch(ctx context.Context) (*DispatchSummary, error) {
	now := s.now().UTC()
	summary := &DispatchSummary{RanAt: now}

	for _, stage := range model.Stages() {
		result, err := s.dispatchStage(ctx, stage, now)
		if err != nil {
			return nil, fmt.Errorf("dispatch %s stage: %w", stage, err)
		}
		summary.Stages = append(summary.Stages, *result)
	}

	return summary, nil
}

func (s *ReminderService) dispatchStage(ctx context.Context, stage model.ReminderStage, now time.Time) (*StageResult, error) {
	result := &StageResult{Stage: stage}

	candidates, err := s.reservationStore.StageCandidates(ctx, stage, now)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	for _, candidate := range candidates {
		reservation := candidate.Reservation

		claimed, err := s.reservationStore.ClaimStage(ctx, reservation.ID, stage, now, func(sendCtx context.Context) error {
			return s.sendReminder(sendCtx, candidate, stage)
		})

		switch {
		case err != nil:
			// Стадия не забрана, бронирование останется кандидатом,
			// пока окно стадии не закроется
			result.Failed++
			s.logger.Warn("Reminder send failed",
				zap.Int64("reservation_id", reservation.ID),
				zap.Stringer("stage", stage),
				zap.Error(err))
		case !claimed:
			// Другой запуск диспетчера уже владеет этой стадией
			s.logger.Debug("Stage already claimed",
				zap.Int64("reservation_id", reservation.ID),
				zap.Stringer("stage", stage))
		default:
			result.Sent++
			result.ReservationIDs = append(result.ReservationIDs, reservation.PublicID)
			s.logger.Info("Reminder sent",
				zap.Int64("reservation_id", reservation.ID),
				zap.Stringer("stage", stage),
				zap.Time("start_time", reservation.StartTime))
		}
	}

	return result, nil
}

// sendReminder runs while the stage claim is held. A student send failure
// propagates and rolls the claim back; the teacher copy is best-effort
// once the student mail is out, re-running it would duplicate the student
// mail.
func (s *ReminderService) sendReminder(ctx context.Context, candidate *model.ReminderCandidate, stage model.ReminderStage) error {
	subject, body, err := s.renderer.Reminder(candidate, stage)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.sender.Send(sendCtx, candidate.StudentEmail, subject, body); err != nil {
		return fmt.Errorf("send student reminder: %w", err)
	}

	if candidate.TeacherEmail == nil || *candidate.TeacherEmail == "" {
		return nil
	}

	subject, body, err = s.renderer.TeacherReminder(candidate, stage)
	if err != nil {
		s.logger.Warn("Teacher reminder render failed",
			zap.Int64("reservation_id", candidate.Reservation.ID),
			zap.Error(err))
		return nil
	}

	teacherCtx, cancelTeacher := context.WithTimeout(ctx, s.sendTimeout)
	defer cancelTeacher()

	if err := s.sender.Send(teacherCtx, *candidate.TeacherEmail, subject, body); err != nil {
		s.logger.Warn("Teacher reminder send failed",
			zap.Int64("reservation_id", candidate.Reservation.ID),
			zap.Stringer("stage", stage),
			zap.Error(err))
	}

	return nil
}
