package model

import (
	"time"

	"github.com/google/uuid"
)

// CancellationWindow is how long before start a student may still cancel.
const CancellationWindow = 24 * time.Hour

// Reservation is a student's booking, optionally tied to a published slot.
type Reservation struct {
	ID        int64     `json:"id"`
	PublicID  uuid.UUID `json:"public_id"`
	StudentID int64     `json:"student_id"`
	TeacherID *int64    `json:"teacher_id"` // denormalized from the assignment at booking time
	SlotID    *int64    `json:"slot_id"`    // nil for ad-hoc bookings
	StartTime time.Time `json:"start_time"` // UTC instant
	ClassType ClassType `json:"class_type"`
	Modality  Modality  `json:"modality"`
	Course    string    `json:"course"`
	Level     *string   `json:"level"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`

	// Each marker is write-once: set by the dispatcher when the stage
	// is claimed, never cleared afterwards.
	Reminder30SentAt *time.Time `json:"reminder_30_sent_at"`
	Reminder5SentAt  *time.Time `json:"reminder_5_sent_at"`
	Reminder1SentAt  *time.Time `json:"reminder_1_sent_at"`

	// Дополнительные поля для удобства (не из БД)
	Slot *Slot `json:"slot,omitempty"`
}

// CancelCutoff returns the last instant at which cancellation is still allowed.
func (r *Reservation) CancelCutoff() time.Time {
	return r.StartTime.Add(-CancellationWindow)
}

// StageSentAt returns the sent-marker for the given stage.
func (r *Reservation) StageSentAt(stage ReminderStage) *time.Time {
	switch stage {
	case Stage30:
		return r.Reminder30SentAt
	case Stage5:
		return r.Reminder5SentAt
	case Stage1:
		return r.Reminder1SentAt
	}
	return nil
}

// ReminderCandidate is a reservation due for a reminder stage, joined with
// the contact data the notification needs.
type ReminderCandidate struct {
	Reservation  Reservation
	StudentName  string
	StudentEmail string
	TeacherName  *string
	TeacherEmail *string
	MeetingLink  *string
}
