package model

import (
	"fmt"
	"time"
)

// ReminderStage is one of the three reminder lead times, in minutes
// before class start.
type ReminderStage int

const (
	Stage30 ReminderStage = 30
	Stage5  ReminderStage = 5
	Stage1  ReminderStage = 1
)

// Stages returns all stages in dispatch order.
func Stages() []ReminderStage {
	return []ReminderStage{Stage30, Stage5, Stage1}
}

// Minutes возвращает длительность стадии в минутах
func (s ReminderStage) Minutes() int {
	return int(s)
}

// Column returns the sent-marker column backing the stage. Values outside
// the three known stages panic: the column name is interpolated into SQL.
func (s ReminderStage) Column() string {
	switch s {
	case Stage30:
		return "reminder_30_sent_at"
	case Stage5:
		return "reminder_5_sent_at"
	case Stage1:
		return "reminder_1_sent_at"
	}
	panic(fmt.Sprintf("unknown reminder stage: %d", int(s)))
}

// Window returns the candidate window for the stage at the given instant:
// a reservation qualifies when after < start_time <= until. The window is
// one minute wide and ends exactly at the stage boundary, so each
// reservation is a candidate for roughly one dispatch cycle per stage.
func (s ReminderStage) Window(now time.Time) (after, until time.Time) {
	until = now.Add(time.Duration(s) * time.Minute)
	after = until.Add(-time.Minute)
	return after, until
}

func (s ReminderStage) String() string {
	return fmt.Sprintf("%dm", int(s))
}
