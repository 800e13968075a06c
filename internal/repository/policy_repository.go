package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lessonhub/booking_service/internal/model"
)

// PolicyRepository stores the global day policy (teacher_id null) and the
// per-teacher overrides in one table.
type PolicyRepository struct {
	pool *pgxpool.Pool
}

func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

// GetGlobal получает глобальную политику; nil если она не настроена
func (r *PolicyRepository) GetGlobal(ctx context.Context) (*model.DayPolicy, error) {
	query := `
		SELECT teacher_id, weekdays, updated_at
		FROM day_policies
		WHERE teacher_id IS NULL
	`

	return r.getOne(ctx, query)
}

// GetForTeacher получает override учителя; nil если его нет
func (r *PolicyRepository) GetForTeacher(ctx context.Context, teacherID int64) (*model.DayPolicy, error) {
	query := `
		SELECT teacher_id, weekdays, updated_at
		FROM day_policies
		WHERE teacher_id = $1
	`

	return r.getOne(ctx, query, teacherID)
}

// SetGlobal задаёт глобальную политику
func (r *PolicyRepository) SetGlobal(ctx context.Context, weekdays model.WeekdaySet) error {
	query := `
		INSERT INTO day_policies (teacher_id, weekdays)
		VALUES (NULL, $1)
		ON CONFLICT (teacher_id) DO UPDATE
		SET weekdays = EXCLUDED.weekdays, updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query, int16(weekdays))
	if err != nil {
		return fmt.Errorf("upsert global policy: %w", err)
	}

	return nil
}

// SetForTeacher задаёт override учителя
func (r *PolicyRepository) SetForTeacher(ctx context.Context, teacherID int64, weekdays model.WeekdaySet) error {
	query := `
		INSERT INTO day_policies (teacher_id, weekdays)
		VALUES ($1, $2)
		ON CONFLICT (teacher_id) DO UPDATE
		SET weekdays = EXCLUDED.weekdays, updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query, teacherID, int16(weekdays))
	if err != nil {
		return fmt.Errorf("upsert teacher policy: %w", err)
	}

	return nil
}

// DeleteForTeacher убирает override учителя
func (r *PolicyRepository) DeleteForTeacher(ctx context.Context, teacherID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM day_policies WHERE teacher_id = $1`, teacherID)
	if err != nil {
		return fmt.Errorf("delete teacher policy: %w", err)
	}

	return nil
}

func (r *PolicyRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.DayPolicy, error) {
	var policy model.DayPolicy
	var weekdays int16

	err := r.pool.QueryRow(ctx, query, args...).Scan(&policy.TeacherID, &weekdays, &policy.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get day policy: %w", err)
	}

	policy.Weekdays = model.WeekdaySet(weekdays)

	return &policy, nil
}
