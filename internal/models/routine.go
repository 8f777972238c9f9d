package models

import "time"

// Routine is a recurring weekly schedule entry published by a teacher.
type Routine struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Day          string    `db:"day" json:"day"`
	StartTime    string    `db:"start_time" json:"startTime"`
	EndTime      string    `db:"end_time" json:"endTime"`
	TeacherEmail string    `db:"teacher_email" json:"teacherEmail"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
