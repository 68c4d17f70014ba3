package models

import "time"

// Grade is a class level students are assigned to.
type Grade struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Level int    `db:"level" json:"level"`
}

// Student represents a learner registered in the institution.
type Student struct {
	ID         string    `db:"id" json:"id"`
	NIS        string    `db:"nis" json:"nis"`
	FullName   string    `db:"full_name" json:"full_name"`
	Gender     string    `db:"gender" json:"gender"`
	BirthDate  time.Time `db:"birth_date" json:"birth_date"`
	GradeID    *string   `db:"grade_id" json:"grade_id,omitempty"`
	GuardianID *string   `db:"guardian_id" json:"guardian_id,omitempty"`
	Address    string    `db:"address" json:"address"`
	Phone      string    `db:"phone" json:"phone"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins grade and guardian names onto the student row.
type StudentDetail struct {
	Student
	GradeName    *string `db:"grade_name" json:"grade_name,omitempty"`
	GuardianName *string `db:"guardian_name" json:"guardian_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	GradeID    string
	GuardianID string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
