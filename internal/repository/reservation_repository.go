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

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationColumns = `id, public_id, student_id, teacher_id, slot_id, start_time, class_type, modality, course, level, notes, created_at, reminder_30_sent_at, reminder_5_sent_at, reminder_1_sent_at`

const insertReservation = `
	INSERT INTO reservations (public_id, student_id, teacher_id, slot_id, start_time, class_type, modality, course, level, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at
`

// Create создаёт ad-hoc бронирование без слота
func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	err := r.pool.QueryRow(ctx, insertReservation, insertArgs(reservation)...).
		Scan(&reservation.ID, &reservation.CreatedAt)

	if err != nil {
		return mapInsertError(err)
	}

	return nil
}

// CreateSlotBacked creates a slot-backed reservation. The slot row is
// locked for the duration of the transaction so the count-then-insert
// sequence cannot overshoot capacity under concurrent bookers.
func (r *ReservationRepository) CreateSlotBacked(ctx context.Context, reservation *model.Reservation, slotID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var capacity int
	err = tx.QueryRow(ctx, `SELECT capacity FROM slots WHERE id = $1 FOR UPDATE`, slotID).Scan(&capacity)
	if err != nil {
		if err == pgx.ErrNoRows {
			return service.ErrSlotNotFound
		}
		return fmt.Errorf("lock slot: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx, `SELECT count(*) FROM reservations WHERE slot_id = $1`, slotID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count slot reservations: %w", err)
	}

	if count >= capacity {
		return service.Rejected(service.RejectSlotFull)
	}

	err = tx.QueryRow(ctx, insertReservation, insertArgs(reservation)...).
		Scan(&reservation.ID, &reservation.CreatedAt)
	if err != nil {
		return mapInsertError(err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByPublicID получает бронирование по публичному UUID
func (r *ReservationRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE public_id = $1`

	var reservation model.Reservation
	err := scanReservation(r.pool.QueryRow(ctx, query, publicID), &reservation)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	return &reservation, nil
}

// GetByStudentID получает все бронирования студента, ближайшие первыми
func (r *ReservationRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Reservation, error) {
	query := `
		SELECT r.id, r.public_id, r.student_id, r.teacher_id, r.slot_id, r.start_time, r.class_type, r.modality, r.course, r.level, r.notes, r.created_at,
		       r.reminder_30_sent_at, r.reminder_5_sent_at, r.reminder_1_sent_at,
		       s.public_id, s.duration_minutes, s.capacity, s.meeting_link, s.created_at
		FROM reservations r
		LEFT JOIN slots s ON s.id = r.slot_id
		WHERE r.student_id = $1
		ORDER BY r.start_time
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get reservations by student: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		var reservation model.Reservation
		var slotPublicID *uuid.UUID
		var slotDuration, slotCapacity *int
		var slotMeetingLink *string
		var slotCreatedAt *time.Time

		err := rows.Scan(
			&reservation.ID,
			&reservation.PublicID,
			&reservation.StudentID,
			&reservation.TeacherID,
			&reservation.SlotID,
			&reservation.StartTime,
			&reservation.ClassType,
			&reservation.Modality,
			&reservation.Course,
			&reservation.Level,
			&reservation.Notes,
			&reservation.CreatedAt,
			&reservation.Reminder30SentAt,
			&reservation.Reminder5SentAt,
			&reservation.Reminder1SentAt,
			&slotPublicID,
			&slotDuration,
			&slotCapacity,
			&slotMeetingLink,
			&slotCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}

		if reservation.SlotID != nil && slotPublicID != nil {
			reservation.Slot = &model.Slot{
				ID:              *reservation.SlotID,
				PublicID:        *slotPublicID,
				TeacherID:       derefOrZero(reservation.TeacherID),
				StartTime:       reservation.StartTime,
				DurationMinutes: *slotDuration,
				ClassType:       reservation.ClassType,
				Modality:        reservation.Modality,
				Course:          reservation.Course,
				Level:           reservation.Level,
				Capacity:        *slotCapacity,
				MeetingLink:     slotMeetingLink,
				CreatedAt:       *slotCreatedAt,
			}
		}

		reservations = append(reservations, &reservation)
	}

	return reservations, rows.Err()
}

// CountBySlotID считает бронирования, ссылающиеся на слот
func (r *ReservationRepository) CountBySlotID(ctx context.Context, slotID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reservations WHERE slot_id = $1`, slotID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reservations by slot: %w", err)
	}

	return count, nil
}

// ExistsAt проверяет бронирование студента на указанный момент
func (r *ReservationRepository) ExistsAt(ctx context.Context, studentID int64, startTime time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE student_id = $1 AND start_time = $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, studentID, startTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation exists: %w", err)
	}

	return exists, nil
}

// Delete удаляет бронирование
func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrReservationNotFound
	}

	return nil
}

// StageCandidates selects reservations inside the stage's one-minute
// window whose marker is still unset, with the contact data the
// notification needs.
func (r *ReservationRepository) StageCandidates(ctx context.Context, stage model.ReminderStage, now time.Time) ([]*model.ReminderCandidate, error) {
	after, until := stage.Window(now)

	query := fmt.Sprintf(`
		SELECT r.id, r.public_id, r.student_id, r.teacher_id, r.slot_id, r.start_time, r.class_type, r.modality, r.course, r.level, r.notes, r.created_at,
		       r.reminder_30_sent_at, r.reminder_5_sent_at, r.reminder_1_sent_at,
		       st.name, st.email, t.name, t.email, s.meeting_link
		FROM reservations r
		JOIN users st ON st.id = r.student_id
		LEFT JOIN users t ON t.id = r.teacher_id
		LEFT JOIN slots s ON s.id = r.slot_id
		WHERE r.%s IS NULL
		  AND r.start_time > $1
		  AND r.start_time > $2
		  AND r.start_time <= $3
		ORDER BY r.start_time
	`, stage.Column())

	rows, err := r.pool.Query(ctx, query, now, after, until)
	if err != nil {
		return nil, fmt.Errorf("select stage candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*model.ReminderCandidate
	for rows.Next() {
		var c model.ReminderCandidate
		err := rows.Scan(
			&c.Reservation.ID,
			&c.Reservation.PublicID,
			&c.Reservation.StudentID,
			&c.Reservation.TeacherID,
			&c.Reservation.SlotID,
			&c.Reservation.StartTime,
			&c.Reservation.ClassType,
			&c.Reservation.Modality,
			&c.Reservation.Course,
			&c.Reservation.Level,
			&c.Reservation.Notes,
			&c.Reservation.CreatedAt,
			&c.Reservation.Reminder30SentAt,
			&c.Reservation.Reminder5SentAt,
			&c.Reservation.Reminder1SentAt,
			&c.StudentName,
			&c.StudentEmail,
			&c.TeacherName,
			&c.TeacherEmail,
			&c.MeetingLink,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}

	return candidates, rows.Err()
}

// ClaimStage sets the stage marker iff it is still null and runs send
// while the row lock is held. A concurrent run blocks on the lock and
// sees the committed marker, so at most one send per (reservation, stage)
// ever commits; a failed send rolls the claim back and the stage stays
// open for the next cycle.
func (r *ReservationRepository) ClaimStage(ctx context.Context, reservationID int64, stage model.ReminderStage, sentAt time.Time, send func(ctx context.Context) error) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	column := stage.Column()
	query := fmt.Sprintf(`UPDATE reservations SET %s = $1 WHERE id = $2 AND %s IS NULL`, column, column)

	result, err := tx.Exec(ctx, query, sentAt, reservationID)
	if err != nil {
		return false, fmt.Errorf("claim stage: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Стадия уже отправлена другим запуском
		return false, nil
	}

	if err := send(ctx); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit claim: %w", err)
	}

	return true, nil
}

func insertArgs(reservation *model.Reservation) []interface{} {
	return []interface{}{
		reservation.PublicID,
		reservation.StudentID,
		reservation.TeacherID,
		reservation.SlotID,
		reservation.StartTime,
		reservation.ClassType,
		reservation.Modality,
		reservation.Course,
		reservation.Level,
		reservation.Notes,
	}
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return service.Rejected(service.RejectDuplicateBooking)
	}
	return fmt.Errorf("create reservation: %w", err)
}

func scanReservation(row pgx.Row, reservation *model.Reservation) error {
	return row.Scan(
		&reservation.ID,
		&reservation.PublicID,
		&reservation.StudentID,
		&reservation.TeacherID,
		&reservation.SlotID,
		&reservation.StartTime,
		&reservation.ClassType,
		&reservation.Modality,
		&reservation.Course,
		&reservation.Level,
		&reservation.Notes,
		&reservation.CreatedAt,
		&reservation.Reminder30SentAt,
		&reservation.Reminder5SentAt,
		&reservation.Reminder1SentAt,
	)
}

func derefOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
