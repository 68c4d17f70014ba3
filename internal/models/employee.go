package models

import "time"

// Employee is a staff member, optionally linked to a portal user for
// self-service access (attendance, payslips).
type Employee struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	NIP        string    `db:"nip" json:"nip"`
	FullName   string    `db:"full_name" json:"full_name"`
	Position   string    `db:"position" json:"position"`
	BaseSalary int64     `db:"base_salary" json:"base_salary"`
	Phone      string    `db:"phone" json:"phone"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter scopes employee listings.
type EmployeeFilter struct {
	Search    string
	Position  string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
