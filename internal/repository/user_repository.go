package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lessonhub/booking_service/internal/model"
)

// UserRepository reads identity data owned by the external CRUD subsystem.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, public_id, name, email, role, teacher_id, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.PublicID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.TeacherID,
		&user.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// AssignedTeacher получает назначенного учителя студента, nil если его нет
func (r *UserRepository) AssignedTeacher(ctx context.Context, studentID int64) (*int64, error) {
	query := `
		SELECT teacher_id
		FROM users
		WHERE id = $1
	`

	var teacherID *int64
	err := r.pool.QueryRow(ctx, query, studentID).Scan(&teacherID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get assigned teacher: %w", err)
	}

	return teacherID, nil
}
