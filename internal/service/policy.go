package service

import (
	"time"

	"github.com/lessonhub/booking_service/internal/model"
)

// BookingCandidate is a snapshot of everything the booking policy needs:
// the candidate reservation, the student's assignment, the referenced slot
// (nil for ad-hoc bookings) with its current reservation count, and the
// effective day policy. The caller gathers the snapshot; evaluation itself
// has no side effects.
type BookingCandidate struct {
	StudentID         int64
	StartTime         time.Time
	AssignedTeacherID *int64
	Slot              *model.Slot
	SlotReservations  int
	DuplicateExists   bool
	Weekdays          model.WeekdaySet
}

// EvaluateBooking decides whether the candidate may be booked. Checks run
// in a fixed order so the first failing check always names the reason:
// slot ownership, capacity, duplicate booking, day policy. A nil return
// means accept.
func EvaluateBooking(c BookingCandidate) error {
	if c.Slot != nil {
		if c.AssignedTeacherID != nil && c.Slot.TeacherID != *c.AssignedTeacherID {
			return Rejected(RejectWrongTeacher)
		}
		if c.SlotReservations >= c.Slot.Capacity {
			return Rejected(RejectSlotFull)
		}
	}

	if c.DuplicateExists {
		return Rejected(RejectDuplicateBooking)
	}

	if !c.Weekdays.Has(c.StartTime.UTC().Weekday()) {
		return Rejected(RejectDayNotAllowed)
	}

	return nil
}
