package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is owned by the external identity subsystem; we read it for
// emails, roles and the student's teacher assignment.
type User struct {
	ID        int64     `json:"id"`
	PublicID  uuid.UUID `json:"public_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TeacherID *int64    `json:"teacher_id"` // assigned teacher, students only
	CreatedAt time.Time `json:"created_at"`
}

// IsTeacher checks if the user has the teacher role
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
