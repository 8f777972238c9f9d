package models

import "time"

// ApplicationStatus captures the teacher application lifecycle. Pending is
// the only non-terminal state.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Valid reports whether the value is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status allows no further transitions.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// TeacherApplication is a submitted request to become a teacher. Multiple
// applications per email are allowed; no foreign key to users exists.
type TeacherApplication struct {
	ID          string            `db:"id" json:"id"`
	Email       string            `db:"email" json:"email"`
	Name        string            `db:"name" json:"name"`
	Experience  string            `db:"experience" json:"experience"`
	Category    string            `db:"category" json:"category"`
	Status      ApplicationStatus `db:"status" json:"status"`
	SubmittedAt time.Time         `db:"submitted_at" json:"submittedAt"`
	ReviewedAt  *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewedBy  *string           `db:"reviewed_by" json:"reviewedBy,omitempty"`
}
