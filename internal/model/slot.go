package model

import (
	"time"

	"github.com/google/uuid"
)

type ClassType string

const (
	ClassTypeClass ClassType = "class"
	ClassTypeExam  ClassType = "exam"
)

type Modality string

const (
	ModalityVirtual  Modality = "virtual"
	ModalityInPerson Modality = "in_person"
)

// Slot is a teacher-published bookable time window.
type Slot struct {
	ID              int64     `json:"id"`
	PublicID        uuid.UUID `json:"public_id"`
	TeacherID       int64     `json:"teacher_id"`
	StartTime       time.Time `json:"start_time"` // UTC instant
	DurationMinutes int       `json:"duration_minutes"`
	ClassType       ClassType `json:"class_type"`
	Modality        Modality  `json:"modality"`
	Course          string    `json:"course"`
	Level           *string   `json:"level"`
	Capacity        int       `json:"capacity"`
	MeetingLink     *string   `json:"meeting_link"` // указатель - может быть nil
	CreatedAt       time.Time `json:"created_at"`
}

// EndTime is derived, the store only keeps start and duration.
func (s *Slot) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
