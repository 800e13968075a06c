package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/lessonhub/booking_service/internal/model"
)

// MeetingLinkPlaceholder is shown when the teacher has not added a link yet.
const MeetingLinkPlaceholder = "Your teacher will add the meeting link before class."

var reminderTmpl = template.Must(template.New("reminder").Parse(`<p>Hi {{.Name}},</p>
<p>Your {{.Course}}{{if .Level}} ({{.Level}}){{end}} {{.ClassType}} starts in {{.Minutes}} {{if eq .Minutes 1}}minute{{else}}minutes{{end}}, at {{.StartTime}} ({{.Modality}}).</p>
{{if .MeetingLink}}<p>Join here: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></p>{{else}}<p>{{.Placeholder}}</p>{{end}}
<p>See you there!</p>`))

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hi {{.Name}},</p>
<p>Your {{.Course}}{{if .Level}} ({{.Level}}){{end}} {{.ClassType}} on {{.StartTime}} is booked ({{.Modality}}).</p>
{{if .MeetingLink}}<p>Join here: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></p>{{end}}`))

var teacherBookedTmpl = template.Must(template.New("teacher_booked").Parse(`<p>Hi {{.Name}},</p>
<p>{{.StudentName}} booked your {{.Course}}{{if .Level}} ({{.Level}}){{end}} {{.ClassType}} on {{.StartTime}} ({{.Modality}}).</p>`))

// Renderer builds notification subjects and bodies. Times are stored as
// UTC instants; this is the only place they are rendered in the local zone.
type Renderer struct {
	loc *time.Location
}

func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

type mailData struct {
	Name        string
	StudentName string
	Course      string
	Level       string
	ClassType   string
	Modality    string
	StartTime   string
	Minutes     int
	MeetingLink string
	Placeholder string
}

// Reminder renders the staged reminder for a candidate reservation.
func (r *Renderer) Reminder(c *model.ReminderCandidate, stage model.ReminderStage) (subject, body string, err error) {
	data := r.data(c.StudentName, &c.Reservation)
	data.Minutes = stage.Minutes()
	if c.MeetingLink != nil {
		data.MeetingLink = *c.MeetingLink
	}
	data.Placeholder = MeetingLinkPlaceholder

	subject = fmt.Sprintf("Your %s %s starts in %s", c.Reservation.Course, c.Reservation.ClassType, stageWord(stage))
	body, err = render(reminderTmpl, data)
	return subject, body, err
}

// TeacherReminder renders the parallel reminder sent to the teacher.
func (r *Renderer) TeacherReminder(c *model.ReminderCandidate, stage model.ReminderStage) (subject, body string, err error) {
	name := ""
	if c.TeacherName != nil {
		name = *c.TeacherName
	}
	data := r.data(name, &c.Reservation)
	data.Minutes = stage.Minutes()
	data.StudentName = c.StudentName
	if c.MeetingLink != nil {
		data.MeetingLink = *c.MeetingLink
	}
	data.Placeholder = MeetingLinkPlaceholder

	subject = fmt.Sprintf("%s: your %s %s with %s starts in %s",
		c.Reservation.Course, c.Reservation.Modality, c.Reservation.ClassType, c.StudentName, stageWord(stage))
	body, err = render(reminderTmpl, data)
	return subject, body, err
}

// BookingConfirmed renders the confirmation mail sent to the student.
func (r *Renderer) BookingConfirmed(studentName string, reservation *model.Reservation, meetingLink *string) (subject, body string, err error) {
	data := r.data(studentName, reservation)
	if meetingLink != nil {
		data.MeetingLink = *meetingLink
	}

	subject = fmt.Sprintf("Booking confirmed: %s on %s", reservation.Course, data.StartTime)
	body, err = render(confirmationTmpl, data)
	return subject, body, err
}

// TeacherBooked renders the notification sent to the teacher about a new booking.
func (r *Renderer) TeacherBooked(teacherName, studentName string, reservation *model.Reservation) (subject, body string, err error) {
	data := r.data(teacherName, reservation)
	data.StudentName = studentName

	subject = fmt.Sprintf("New booking: %s on %s", reservation.Course, data.StartTime)
	body, err = render(teacherBookedTmpl, data)
	return subject, body, err
}

func (r *Renderer) data(name string, reservation *model.Reservation) mailData {
	data := mailData{
		Name:      name,
		Course:    reservation.Course,
		ClassType: string(reservation.ClassType),
		Modality:  modalityWord(reservation.Modality),
		StartTime: reservation.StartTime.In(r.loc).Format("Monday, 2 January 2006 at 15:04"),
	}
	if reservation.Level != nil {
		data.Level = *reservation.Level
	}
	return data
}

func render(tmpl *template.Template, data mailData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

func stageWord(stage model.ReminderStage) string {
	if stage == model.Stage1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", stage.Minutes())
}

func modalityWord(m model.Modality) string {
	if m == model.ModalityInPerson {
		return "in person"
	}
	return string(m)
}
