package models

import "time"

// LiveClass is a scheduled live session owned by a teacher.
type LiveClass struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	TeacherName  string    `db:"teacher_name" json:"teacherName"`
	TeacherEmail string    `db:"teacher_email" json:"teacherEmail"`
	StartsAt     time.Time `db:"starts_at" json:"startsAt"`
	DurationMin  int       `db:"duration_min" json:"durationMin"`
	MeetingURL   string    `db:"meeting_url" json:"meetingUrl"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
