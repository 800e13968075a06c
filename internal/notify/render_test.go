package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/lessonhub/booking_service/internal/model"
)

func candidate(meetingLink *string) *model.ReminderCandidate {
	return &model.ReminderCandidate{
		Reservation: model.Reservation{
			StartTime: time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC),
			ClassType: model.ClassTypeClass,
			Modality:  model.ModalityVirtual,
			Course:    "Spanish",
		},
		StudentName:  "Ana",
		StudentEmail: "ana@example.com",
		MeetingLink:  meetingLink,
	}
}

func TestRenderer_ReminderWithMeetingLink(t *testing.T) {
	link := "https://meet.example.com/abc"

	subject, body, err := NewRenderer(time.UTC).Reminder(candidate(&link), model.Stage30)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if subject != "Your Spanish class starts in 30 minutes" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, link) {
		t.Fatalf("expected body to contain the meeting link, got %q", body)
	}
	if strings.Contains(body, MeetingLinkPlaceholder) {
		t.Fatalf("expected no placeholder when a link is present")
	}
}

func TestRenderer_ReminderWithoutMeetingLink(t *testing.T) {
	_, body, err := NewRenderer(time.UTC).Reminder(candidate(nil), model.Stage5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(body, MeetingLinkPlaceholder) {
		t.Fatalf("expected the placeholder when no link is set, got %q", body)
	}
}

func TestRenderer_OneMinuteStageSingular(t *testing.T) {
	subject, body, err := NewRenderer(time.UTC).Reminder(candidate(nil), model.Stage1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.HasSuffix(subject, "starts in 1 minute") {
		t.Fatalf("expected singular minute in subject, got %q", subject)
	}
	if !strings.Contains(body, "in 1 minute,") {
		t.Fatalf("expected singular minute in body, got %q", body)
	}
}

func TestRenderer_LocalZoneFormatting(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	// 15:00 UTC 3 марта — 16:00 в Мадриде (CET)
	_, body, err := NewRenderer(madrid).Reminder(candidate(nil), model.Stage30)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(body, "Monday, 3 March 2025 at 16:00") {
		t.Fatalf("expected start time rendered in Europe/Madrid, got %q", body)
	}
}

func TestRenderer_BookingConfirmed(t *testing.T) {
	link := "https://meet.example.com/abc"
	reservation := &model.Reservation{
		StartTime: time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC),
		ClassType: model.ClassTypeExam,
		Modality:  model.ModalityInPerson,
		Course:    "French",
	}

	subject, body, err := NewRenderer(time.UTC).BookingConfirmed("Ana", reservation, &link)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.HasPrefix(subject, "Booking confirmed: French") {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "in person") {
		t.Fatalf("expected modality spelled out, got %q", body)
	}
	if !strings.Contains(body, link) {
		t.Fatalf("expected body to contain the meeting link")
	}
}
