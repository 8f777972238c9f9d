package models

import "time"

// Class is teacher-owned course content. TeacherEmail is the ownership
// field checked by the gate on mutation.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	ImageURL     string    `db:"image_url" json:"imageUrl"`
	TeacherName  string    `db:"teacher_name" json:"teacherName"`
	TeacherEmail string    `db:"teacher_email" json:"teacherEmail"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassFilter captures listing criteria for the public catalog.
type ClassFilter struct {
	TeacherEmail string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
