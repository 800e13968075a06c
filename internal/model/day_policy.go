package model

import "time"

// WeekdaySet is a bitmask of permitted weekdays, bit 0 = Sunday ... bit 6 = Saturday.
type WeekdaySet uint8

// AllWeekdays permits booking on every day of the week.
const AllWeekdays WeekdaySet = 0x7f

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// Has checks if the weekday is permitted.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Weekdays returns the permitted days in Sunday-first order.
func (s WeekdaySet) Weekdays() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// IsEmpty reports a set that permits no days at all.
func (s WeekdaySet) IsEmpty() bool {
	return s&AllWeekdays == 0
}

// DayPolicy restricts which weekdays may be booked. A row with a nil
// TeacherID is the single global policy; a teacher's row shadows the
// global one entirely.
type DayPolicy struct {
	TeacherID *int64     `json:"teacher_id"`
	Weekdays  WeekdaySet `json:"weekdays"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// EffectiveWeekdays resolves the policy that governs a booking: the
// teacher override wins outright, else the global policy, else all days
// are permitted. Pure function of its two optional inputs.
func EffectiveWeekdays(teacher, global *DayPolicy) WeekdaySet {
	if teacher != nil {
		return teacher.Weekdays
	}
	if global != nil {
		return global.Weekdays
	}
	return AllWeekdays
}
