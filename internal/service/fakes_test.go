package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lessonhub/booking_service/internal/model"
)

// In-memory store fakes. The reservation fake mirrors the transactional
// guarantees of the pgx repository: capacity check-and-insert under one
// lock, and a stage claim that is released when send fails.

type fakeUserStore struct {
	users map[int64]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	m := make(map[int64]*model.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserStore{users: m}
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) AssignedTeacher(_ context.Context, studentID int64) (*int64, error) {
	u := f.users[studentID]
	if u == nil {
		return nil, nil
	}
	return u.TeacherID, nil
}

type fakeSlotStore struct {
	mu           sync.Mutex
	nextID       int64
	slots        map[int64]*model.Slot
	reservations *fakeReservationStore
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: make(map[int64]*model.Slot)}
}

func (f *fakeSlotStore) Create(_ context.Context, slot *model.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	slot.ID = f.nextID
	slot.CreatedAt = time.Now().UTC()
	copied := *slot
	f.slots[slot.ID] = &copied
	return nil
}

func (f *fakeSlotStore) GetByID(_ context.Context, id int64) (*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot := f.slots[id]
	if slot == nil {
		return nil, nil
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotStore) GetByPublicID(_ context.Context, publicID uuid.UUID) (*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, slot := range f.slots {
		if slot.PublicID == publicID {
			copied := *slot
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSlotStore) GetByTeacherID(_ context.Context, teacherID int64) ([]*model.Slot, error) {
	return f.list(func(s *model.Slot) bool { return s.TeacherID == teacherID }), nil
}

func (f *fakeSlotStore) GetFutureByTeacherID(_ context.Context, teacherID int64, after time.Time) ([]*model.Slot, error) {
	return f.list(func(s *model.Slot) bool {
		return s.TeacherID == teacherID && s.StartTime.After(after)
	}), nil
}

func (f *fakeSlotStore) ExistsAt(_ context.Context, teacherID int64, startTime time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, slot := range f.slots {
		if slot.TeacherID == teacherID && slot.StartTime.Equal(startTime) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSlotStore) SetMeetingLink(_ context.Context, id int64, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot := f.slots[id]
	if slot == nil {
		return ErrSlotNotFound
	}
	slot.MeetingLink = &link
	return nil
}

func (f *fakeSlotStore) Delete(ctx context.Context, id int64) error {
	if f.reservations != nil {
		count, _ := f.reservations.CountBySlotID(ctx, id)
		if count > 0 {
			return ErrSlotHasReservations
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.slots[id] == nil {
		return ErrSlotNotFound
	}
	delete(f.slots, id)
	return nil
}

func (f *fakeSlotStore) list(keep func(*model.Slot) bool) []*model.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*model.Slot
	for _, slot := range f.slots {
		if keep(slot) {
			copied := *slot
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result
}

type fakeReservationStore struct {
	mu           sync.Mutex
	nextID       int64
	reservations map[int64]*model.Reservation
	slots        *fakeSlotStore
	users        *fakeUserStore
}

func newFakeReservationStore(slots *fakeSlotStore, users *fakeUserStore) *fakeReservationStore {
	f := &fakeReservationStore{
		reservations: make(map[int64]*model.Reservation),
		slots:        slots,
		users:        users,
	}
	if slots != nil {
		slots.reservations = f
	}
	return f
}

func (f *fakeReservationStore) Create(_ context.Context, reservation *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.insertLocked(reservation)
}

func (f *fakeReservationStore) CreateSlotBacked(_ context.Context, reservation *model.Reservation, slotID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot := f.slots.slots[slotID]
	if slot == nil {
		return ErrSlotNotFound
	}

	count := 0
	for _, r := range f.reservations {
		if r.SlotID != nil && *r.SlotID == slotID {
			count++
		}
	}
	if count >= slot.Capacity {
		return Rejected(RejectSlotFull)
	}

	return f.insertLocked(reservation)
}

func (f *fakeReservationStore) insertLocked(reservation *model.Reservation) error {
	for _, r := range f.reservations {
		if r.StudentID == reservation.StudentID && r.StartTime.Equal(reservation.StartTime) {
			return Rejected(RejectDuplicateBooking)
		}
	}

	f.nextID++
	reservation.ID = f.nextID
	reservation.CreatedAt = time.Now().UTC()
	copied := *reservation
	f.reservations[reservation.ID] = &copied
	return nil
}

func (f *fakeReservationStore) GetByPublicID(_ context.Context, publicID uuid.UUID) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reservations {
		if r.PublicID == publicID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationStore) GetByStudentID(_ context.Context, studentID int64) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*model.Reservation
	for _, r := range f.reservations {
		if r.StudentID == studentID {
			copied := *r
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (f *fakeReservationStore) CountBySlotID(_ context.Context, slotID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, r := range f.reservations {
		if r.SlotID != nil && *r.SlotID == slotID {
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationStore) ExistsAt(_ context.Context, studentID int64, startTime time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reservations {
		if r.StudentID == studentID && r.StartTime.Equal(startTime) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReservationStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reservations[id] == nil {
		return ErrReservationNotFound
	}
	delete(f.reservations, id)
	return nil
}

func (f *fakeReservationStore) StageCandidates(_ context.Context, stage model.ReminderStage, now time.Time) ([]*model.ReminderCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	after, until := stage.Window(now)

	var candidates []*model.ReminderCandidate
	for _, r := range f.reservations {
		if r.StageSentAt(stage) != nil {
			continue
		}
		if !r.StartTime.After(now) || !r.StartTime.After(after) || r.StartTime.After(until) {
			continue
		}

		copied := *r
		c := &model.ReminderCandidate{Reservation: copied}
		if f.users != nil {
			if student := f.users.users[r.StudentID]; student != nil {
				c.StudentName = student.Name
				c.StudentEmail = student.Email
			}
			if r.TeacherID != nil {
				if teacher := f.users.users[*r.TeacherID]; teacher != nil {
					name := teacher.Name
					email := teacher.Email
					c.TeacherName = &name
					c.TeacherEmail = &email
				}
			}
		}
		if r.SlotID != nil && f.slots != nil {
			if slot := f.slots.slots[*r.SlotID]; slot != nil {
				c.MeetingLink = slot.MeetingLink
			}
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Reservation.StartTime.Before(candidates[j].Reservation.StartTime)
	})
	return candidates, nil
}

func (f *fakeReservationStore) ClaimStage(ctx context.Context, reservationID int64, stage model.ReminderStage, sentAt time.Time, send func(ctx context.Context) error) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.reservations[reservationID]
	if r == nil || r.StageSentAt(stage) != nil {
		return false, nil
	}

	setStage(r, stage, sentAt)

	if err := send(ctx); err != nil {
		// Откат: стадия остаётся незабранной
		setStageNil(r, stage)
		return false, err
	}

	return true, nil
}

func setStage(r *model.Reservation, stage model.ReminderStage, sentAt time.Time) {
	switch stage {
	case model.Stage30:
		r.Reminder30SentAt = &sentAt
	case model.Stage5:
		r.Reminder5SentAt = &sentAt
	case model.Stage1:
		r.Reminder1SentAt = &sentAt
	}
}

func setStageNil(r *model.Reservation, stage model.ReminderStage) {
	switch stage {
	case model.Stage30:
		r.Reminder30SentAt = nil
	case model.Stage5:
		r.Reminder5SentAt = nil
	case model.Stage1:
		r.Reminder1SentAt = nil
	}
}

type fakePolicyStore struct {
	mu       sync.Mutex
	global   *model.DayPolicy
	teachers map[int64]*model.DayPolicy
}

func newFakePolicyStore() *fakePolicyStore {
	return &fakePolicyStore{teachers: make(map[int64]*model.DayPolicy)}
}

func (f *fakePolicyStore) GetGlobal(_ context.Context) (*model.DayPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.global, nil
}

func (f *fakePolicyStore) GetForTeacher(_ context.Context, teacherID int64) (*model.DayPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teachers[teacherID], nil
}

func (f *fakePolicyStore) SetGlobal(_ context.Context, weekdays model.WeekdaySet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = &model.DayPolicy{Weekdays: weekdays, UpdatedAt: time.Now().UTC()}
	return nil
}

func (f *fakePolicyStore) SetForTeacher(_ context.Context, teacherID int64, weekdays model.WeekdaySet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := teacherID
	f.teachers[teacherID] = &model.DayPolicy{TeacherID: &id, Weekdays: weekdays, UpdatedAt: time.Now().UTC()}
	return nil
}

func (f *fakePolicyStore) DeleteForTeacher(_ context.Context, teacherID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.teachers, teacherID)
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeSender struct {
	mu    sync.Mutex
	sends []sentMail
	err   error
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeSender) sent() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sends...)
}

func (f *fakeSender) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSender) sentTo(to string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, s := range f.sends {
		if s.to == to {
			count++
		}
	}
	return count
}
