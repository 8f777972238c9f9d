package models

import "time"

// Role represents a directory role. Unknown emails resolve to RoleUser.
type Role string

const (
	RoleUser    Role = "user"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known directory roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is a directory record keyed by email. The users table enforces a
// unique index on email; registration relies on it.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	LastLogIn time.Time `db:"last_log_in" json:"lastLogIn"`
}

// UserFilter captures filtering criteria for listing directory records.
type UserFilter struct {
	Role      *Role
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
