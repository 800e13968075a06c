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

type BookingService struct {
	userStore        UserStore
	slotStore        SlotStore
	reservationStore ReservationStore
	policyStore      PolicyStore
	sender           notify.Sender
	renderer         *notify.Renderer
	sendTimeout      time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewBookingService(
	userStore UserStore,
	slotStore SlotStore,
	reservationStore ReservationStore,
	policyStore PolicyStore,
	sender notify.Sender,
	renderer *notify.Renderer,
	sendTimeout time.Duration,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		userStore:        userStore,
		slotStore:        slotStore,
		reservationStore: reservationStore,
		policyStore:      policyStore,
		sender:           sender,
		renderer:         renderer,
		sendTimeout:      sendTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// BookInput описывает запрос студента на бронирование
type BookInput struct {
	SlotPublicID *uuid.UUID // nil для ad-hoc бронирования
	StartTime    time.Time  // ignored when a slot is referenced
	ClassType    model.ClassType
	Modality     model.Modality
	Course       string
	Level        *string
	Notes        *string
}

// Book creates a reservation for the student after the booking policy
// accepts it. The policy evaluates a snapshot; the insert re-enforces
// capacity and uniqueness atomically, so concurrent bookers cannot
// overshoot a slot or double-book an instant.
func (s *BookingService) Book(ctx context.Context, studentID int64, input BookInput) (*model.Reservation, error) {
	assignedTeacherID, err := s.userStore.AssignedTeacher(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get assigned teacher: %w", err)
	}

	// Получаем слот, если он указан
	var slot *model.Slot
	if input.SlotPublicID != nil {
		slot, err = s.slotStore.GetByPublicID(ctx, *input.SlotPublicID)
		if err != nil {
			return nil, fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return nil, ErrSlotNotFound
		}
	}

	reservation := buildReservation(studentID, assignedTeacherID, slot, input)

	candidate := BookingCandidate{
		StudentID:         studentID,
		StartTime:         reservation.StartTime,
		AssignedTeacherID: assignedTeacherID,
		Slot:              slot,
	}

	if slot != nil {
		candidate.SlotReservations, err = s.reservationStore.CountBySlotID(ctx, slot.ID)
		if err != nil {
			return nil, fmt.Errorf("count slot reservations: %w", err)
		}
	}

	candidate.DuplicateExists, err = s.reservationStore.ExistsAt(ctx, studentID, reservation.StartTime)
	if err != nil {
		return nil, fmt.Errorf("check duplicate booking: %w", err)
	}

	candidate.Weekdays, err = s.effectiveWeekdays(ctx, assignedTeacherID)
	if err != nil {
		return nil, fmt.Errorf("resolve day policy: %w", err)
	}

	if err := EvaluateBooking(candidate); err != nil {
		s.logger.Info("Booking rejected",
			zap.Int64("student_id", studentID),
			zap.Time("start_time", reservation.StartTime),
			zap.String("reason", err.Error()),
		)
		return nil, err
	}

	if slot != nil {
		err = s.reservationStore.CreateSlotBacked(ctx, reservation, slot.ID)
	} else {
		err = s.reservationStore.Create(ctx, reservation)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("student_id", studentID),
		zap.Time("start_time", reservation.StartTime),
		zap.Bool("slot_backed", slot != nil),
	)

	// Подтверждение по почте не влияет на успех бронирования
	if slot != nil && slot.MeetingLink != nil {
		s.sendConfirmation(ctx, reservation, slot)
	}

	reservation.Slot = slot

	return reservation, nil
}

// Cancel deletes the student's reservation while the cancellation window
// is open. The window closes exactly 24 hours before start; cancelling at
// the cutoff instant still succeeds.
func (s *BookingService) Cancel(ctx context.Context, studentID int64, reservationPublicID uuid.UUID) error {
	reservation, err := s.reservationStore.GetByPublicID(ctx, reservationPublicID)
	if err != nil {
		return fmt.Errorf("get reservation: %w", err)
	}

	if reservation == nil || reservation.StudentID != studentID {
		return ErrReservationNotFound
	}

	if s.now().UTC().After(reservation.CancelCutoff()) {
		return ErrTooLateToCancel
	}

	err = s.reservationStore.Delete(ctx, reservation.ID)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	s.logger.Info("Reservation canceled",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("student_id", studentID),
		zap.Time("start_time", reservation.StartTime),
	)

	return nil
}

// ListForStudent получает все бронирования студента
func (s *BookingService) ListForStudent(ctx context.Context, studentID int64) ([]*model.Reservation, error) {
	return s.reservationStore.GetByStudentID(ctx, studentID)
}

func (s *BookingService) effectiveWeekdays(ctx context.Context, assignedTeacherID *int64) (model.WeekdaySet, error) {
	var teacherPolicy *model.DayPolicy
	var err error

	if assignedTeacherID != nil {
		teacherPolicy, err = s.policyStore.GetForTeacher(ctx, *assignedTeacherID)
		if err != nil {
			return 0, fmt.Errorf("get teacher policy: %w", err)
		}
	}

	globalPolicy, err := s.policyStore.GetGlobal(ctx)
	if err != nil {
		return 0, fmt.Errorf("get global policy: %w", err)
	}

	return model.EffectiveWeekdays(teacherPolicy, globalPolicy), nil
}

// sendConfirmation отправляет письма студенту и учителю, ошибки только логируются
func (s *BookingService) sendConfirmation(ctx context.Context, reservation *model.Reservation, slot *model.Slot) {
	student, err := s.userStore.GetByID(ctx, reservation.StudentID)
	if err != nil || student == nil {
		s.logger.Warn("Confirmation skipped, student lookup failed",
			zap.Int64("reservation_id", reservation.ID),
			zap.Error(err))
		return
	}

	subject, body, err := s.renderer.BookingConfirmed(student.Name, reservation, slot.MeetingLink)
	if err != nil {
		s.logger.Warn("Confirmation render failed",
			zap.Int64("reservation_id", reservation.ID),
			zap.Error(err))
		return
	}
	s.trySend(ctx, student.Email, subject, body, reservation.ID, "student")

	teacher, err := s.userStore.GetByID(ctx, slot.TeacherID)
	if err != nil || teacher == nil || teacher.Email == "" {
		return
	}

	subject, body, err = s.renderer.TeacherBooked(teacher.Name, student.Name, reservation)
	if err != nil {
		s.logger.Warn("Teacher notification render failed",
			zap.Int64("reservation_id", reservation.ID),
			zap.Error(err))
		return
	}
	s.trySend(ctx, teacher.Email, subject, body, reservation.ID, "teacher")
}

func (s *BookingService) trySend(ctx context.Context, to, subject, body string, reservationID int64, recipient string) {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.sender.Send(sendCtx, to, subject, body); err != nil {
		s.logger.Warn("Confirmation send failed",
			zap.Int64("reservation_id", reservationID),
			zap.String("recipient", recipient),
			zap.Error(err))
	}
}

func buildReservation(studentID int64, assignedTeacherID *int64, slot *model.Slot, input BookInput) *model.Reservation {
	reservation := &model.Reservation{
		PublicID:  uuid.New(),
		StudentID: studentID,
		TeacherID: assignedTeacherID,
	}

	if slot != nil {
		slotID := slot.ID
		teacherID := slot.TeacherID
		reservation.SlotID = &slotID
		reservation.TeacherID = &teacherID
		reservation.StartTime = slot.StartTime
		reservation.ClassType = slot.ClassType
		reservation.Modality = slot.Modality
		reservation.Course = slot.Course
		reservation.Level = slot.Level
	} else {
		reservation.StartTime = input.StartTime.UTC()
		reservation.ClassType = input.ClassType
		reservation.Modality = input.Modality
		reservation.Course = input.Course
		reservation.Level = input.Level
	}

	reservation.Notes = input.Notes

	return reservation
}
