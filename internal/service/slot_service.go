package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lessonhub/booking_service/internal/model"
	"go.uber.org/zap"
)

type SlotService struct {
	userStore UserStore
	slotStore SlotStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewSlotService(userStore UserStore, slotStore SlotStore, logger *zap.Logger) *SlotService {
	return &SlotService{
		userStore: userStore,
		slotStore: slotStore,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSlotInput описывает публикуемый слот
type CreateSlotInput struct {
	StartTime       time.Time
	DurationMinutes int
	ClassType       model.ClassType
	Modality        model.Modality
	Course          string
	Level           *string
	Capacity        int
	MeetingLink     *string
}

// Create публикует новый слот учителя
func (s *SlotService) Create(ctx context.Context, teacherID int64, input CreateSlotInput) (*model.Slot, error) {
	teacher, err := s.userStore.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	if teacher == nil || !teacher.IsTeacher() {
		return nil, ErrNotTeacher
	}

	startTime := input.StartTime.UTC()

	exists, err := s.slotStore.ExistsAt(ctx, teacherID, startTime)
	if err != nil {
		return nil, fmt.Errorf("check slot exists: %w", err)
	}
	if exists {
		return nil, ErrSlotConflict
	}

	capacity := input.Capacity
	if capacity == 0 {
		capacity = 1
	}

	slot := &model.Slot{
		PublicID:        uuid.New(),
		TeacherID:       teacherID,
		StartTime:       startTime,
		DurationMinutes: input.DurationMinutes,
		ClassType:       input.ClassType,
		Modality:        input.Modality,
		Course:          input.Course,
		Level:           input.Level,
		Capacity:        capacity,
		MeetingLink:     input.MeetingLink,
	}

	err = s.slotStore.Create(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot published",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Time("start_time", slot.StartTime),
		zap.Int("capacity", slot.Capacity),
	)

	return slot, nil
}

// ListForTeacher получает все слоты учителя
func (s *SlotService) ListForTeacher(ctx context.Context, teacherID int64) ([]*model.Slot, error) {
	return s.slotStore.GetByTeacherID(ctx, teacherID)
}

// ListAvailableForStudent returns the future slots published by the
// student's assigned teacher, soonest first. Capacity is deliberately not
// filtered here: admission is enforced at booking time, a nearly-full slot
// may still be listed.
func (s *SlotService) ListAvailableForStudent(ctx context.Context, studentID int64) ([]*model.Slot, error) {
	teacherID, err := s.userStore.AssignedTeacher(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get assigned teacher: %w", err)
	}

	if teacherID == nil {
		// Без назначенного учителя студенту нечего бронировать
		return nil, nil
	}

	return s.slotStore.GetFutureByTeacherID(ctx, *teacherID, s.now().UTC())
}

// SetMeetingLink обновляет ссылку на занятие в слоте учителя
func (s *SlotService) SetMeetingLink(ctx context.Context, teacherID int64, slotPublicID uuid.UUID, link string) (*model.Slot, error) {
	slot, err := s.slotStore.GetByPublicID(ctx, slotPublicID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	if slot == nil || slot.TeacherID != teacherID {
		return nil, ErrSlotNotFound
	}

	err = s.slotStore.SetMeetingLink(ctx, slot.ID, link)
	if err != nil {
		return nil, fmt.Errorf("set meeting link: %w", err)
	}

	slot.MeetingLink = &link

	s.logger.Info("Meeting link set",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", teacherID),
	)

	return slot, nil
}

// Delete удаляет слот без бронирований
func (s *SlotService) Delete(ctx context.Context, teacherID int64, slotPublicID uuid.UUID) error {
	slot, err := s.slotStore.GetByPublicID(ctx, slotPublicID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}

	if slot == nil || slot.TeacherID != teacherID {
		return ErrSlotNotFound
	}

	err = s.slotStore.Delete(ctx, slot.ID)
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", teacherID),
	)

	return nil
}
