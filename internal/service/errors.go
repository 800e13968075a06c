package service

import "errors"

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrSlotConflict        = errors.New("teacher already has a slot at this time")
	ErrSlotHasReservations = errors.New("slot has reservations")
	ErrTooLateToCancel     = errors.New("cancellation window has closed")
	ErrNotTeacher          = errors.New("user is not a teacher")
)

// RejectReason is the stable code surfaced to the caller when the booking
// policy rejects a candidate reservation.
type RejectReason string

const (
	RejectWrongTeacher     RejectReason = "wrong_teacher"
	RejectSlotFull         RejectReason = "slot_full"
	RejectDuplicateBooking RejectReason = "duplicate_booking"
	RejectDayNotAllowed    RejectReason = "day_not_allowed"
)

// PolicyRejection is returned when a booking fails a policy check rather
// than an infrastructure operation.
type PolicyRejection struct {
	Reason RejectReason
}

func (e *PolicyRejection) Error() string {
	return "booking rejected: " + string(e.Reason)
}

// Rejected создаёт отказ политики с указанной причиной
func Rejected(reason RejectReason) *PolicyRejection {
	return &PolicyRejection{Reason: reason}
}
