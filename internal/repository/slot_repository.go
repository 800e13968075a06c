package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lessonhub/booking_service/internal/model"
	"github.com/lessonhub/booking_service/internal/service"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

const slotColumns = `id, public_id, teacher_id, start_time, duration_minutes, class_type, modality, course, level, capacity, meeting_link, created_at`

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (public_id, teacher_id, start_time, duration_minutes, class_type, modality, course, level, capacity, meeting_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		slot.PublicID,
		slot.TeacherID,
		slot.StartTime,
		slot.DurationMinutes,
		slot.ClassType,
		slot.Modality,
		slot.Course,
		slot.Level,
		slot.Capacity,
		slot.MeetingLink,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return service.ErrSlotConflict
		}
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByPublicID получает слот по публичному UUID
func (r *SlotRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE public_id = $1`
	return r.getOne(ctx, query, publicID)
}

// GetByTeacherID получает все слоты учителя
func (r *SlotRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE teacher_id = $1
		ORDER BY start_time
	`

	return r.getMany(ctx, query, teacherID)
}

// GetFutureByTeacherID returns the teacher's slots strictly after the
// given instant, soonest first.
func (r *SlotRepository) GetFutureByTeacherID(ctx context.Context, teacherID int64, after time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE teacher_id = $1
		  AND start_time > $2
		ORDER BY start_time
	`

	return r.getMany(ctx, query, teacherID, after)
}

// ExistsAt проверяет существование слота учителя в указанное время
func (r *SlotRepository) ExistsAt(ctx context.Context, teacherID int64, startTime time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM slots
			WHERE teacher_id = $1 AND start_time = $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, teacherID, startTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot exists: %w", err)
	}

	return exists, nil
}

// SetMeetingLink обновляет ссылку на занятие
func (r *SlotRepository) SetMeetingLink(ctx context.Context, id int64, link string) error {
	query := `
		UPDATE slots
		SET meeting_link = $1
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, link, id)
	if err != nil {
		return fmt.Errorf("set meeting link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrSlotNotFound
	}

	return nil
}

// Delete удаляет слот; слот с бронированиями удалить нельзя
func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM slots WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return service.ErrSlotHasReservations
		}
		return fmt.Errorf("delete slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrSlotNotFound
	}

	return nil
}

func (r *SlotRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Slot, error) {
	var slot model.Slot
	err := scanSlot(r.pool.QueryRow(ctx, query, arg), &slot)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}

	return &slot, nil
}

func (r *SlotRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]*model.Slot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		if err := scanSlot(rows, &slot); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, rows.Err()
}

func scanSlot(row pgx.Row, slot *model.Slot) error {
	return row.Scan(
		&slot.ID,
		&slot.PublicID,
		&slot.TeacherID,
		&slot.StartTime,
		&slot.DurationMinutes,
		&slot.ClassType,
		&slot.Modality,
		&slot.Course,
		&slot.Level,
		&slot.Capacity,
		&slot.MeetingLink,
		&slot.CreatedAt,
	)
}
