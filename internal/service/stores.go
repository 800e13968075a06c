package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lessonhub/booking_service/internal/model"
)

// Store interfaces consumed by the services. The pgx repositories in
// internal/repository are the production implementations; tests run
// against in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// AssignedTeacher returns the student's assigned teacher id, nil when
	// the student has none.
	AssignedTeacher(ctx context.Context, studentID int64) (*int64, error)
}

type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*model.Slot, error)
	GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.Slot, error)
	GetFutureByTeacherID(ctx context.Context, teacherID int64, after time.Time) ([]*model.Slot, error)
	ExistsAt(ctx context.Context, teacherID int64, startTime time.Time) (bool, error)
	SetMeetingLink(ctx context.Context, id int64, link string) error
	// Delete fails with ErrSlotHasReservations while any reservation
	// references the slot.
	Delete(ctx context.Context, id int64) error
}

type ReservationStore interface {
	// Create inserts an ad-hoc reservation. A concurrent duplicate for
	// (student, start_time) surfaces as a DuplicateBooking rejection.
	Create(ctx context.Context, reservation *model.Reservation) error
	// CreateSlotBacked inserts a slot-backed reservation, re-checking the
	// slot's capacity inside one transaction so the capacity invariant
	// holds under concurrent bookers.
	CreateSlotBacked(ctx context.Context, reservation *model.Reservation, slotID int64) error
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*model.Reservation, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Reservation, error)
	CountBySlotID(ctx context.Context, slotID int64) (int, error)
	ExistsAt(ctx context.Context, studentID int64, startTime time.Time) (bool, error)
	Delete(ctx context.Context, id int64) error
	// StageCandidates returns reservations inside the stage's window whose
	// marker is still unset, joined with contact data.
	StageCandidates(ctx context.Context, stage model.ReminderStage, now time.Time) ([]*model.ReminderCandidate, error)
	// ClaimStage atomically sets the stage marker iff it is still null and
	// runs send while the claim is held. claimed=false without error means
	// another run owns the stage. When send fails the claim is released
	// and the committed marker stays null.
	ClaimStage(ctx context.Context, reservationID int64, stage model.ReminderStage, sentAt time.Time, send func(ctx context.Context) error) (claimed bool, err error)
}

type PolicyStore interface {
	// GetGlobal and GetForTeacher return nil when no policy is configured.
	GetGlobal(ctx context.Context) (*model.DayPolicy, error)
	GetForTeacher(ctx context.Context, teacherID int64) (*model.DayPolicy, error)
	SetGlobal(ctx context.Context, weekdays model.WeekdaySet) error
	SetForTeacher(ctx context.Context, teacherID int64, weekdays model.WeekdaySet) error
	DeleteForTeacher(ctx context.Context, teacherID int64) error
}
