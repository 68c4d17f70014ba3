package models

import "time"

// PaymentStatus enumerates student billing states.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Valid returns true when the status is a supported value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// StudentPayment is a billing record for a student. Records are cancelled,
// never deleted.
type StudentPayment struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Description string        `db:"description" json:"description"`
	Period      string        `db:"period" json:"period"`
	Amount      int64         `db:"amount" json:"amount"`
	Status      PaymentStatus `db:"status" json:"status"`
	PaidAt      *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentPaymentDetail joins the student name onto the payment row.
type StudentPaymentDetail struct {
	StudentPayment
	StudentName string `db:"student_name" json:"student_name"`
}

// StudentPaymentFilter scopes billing listings.
type StudentPaymentFilter struct {
	StudentID string
	Period    string
	Status    *PaymentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// PayrollStatus enumerates payroll record states.
type PayrollStatus string

const (
	PayrollStatusDraft    PayrollStatus = "DRAFT"
	PayrollStatusApproved PayrollStatus = "APPROVED"
	PayrollStatusPaid     PayrollStatus = "PAID"
)

// Valid returns true when the status is a supported value.
func (s PayrollStatus) Valid() bool {
	switch s {
	case PayrollStatusDraft, PayrollStatusApproved, PayrollStatusPaid:
		return true
	default:
		return false
	}
}

// PayrollRecord is one salary run for an employee and period. Total is
// derived server-side from base + allowance - deduction.
type PayrollRecord struct {
	ID         string        `db:"id" json:"id"`
	EmployeeID string        `db:"employee_id" json:"employee_id"`
	Period     string        `db:"period" json:"period"`
	BaseSalary int64         `db:"base_salary" json:"base_salary"`
	Allowance  int64         `db:"allowance" json:"allowance"`
	Deduction  int64         `db:"deduction" json:"deduction"`
	Total      int64         `db:"total" json:"total"`
	Status     PayrollStatus `db:"status" json:"status"`
	PaidAt     *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// PayrollDetail joins the employee name onto the payroll row.
type PayrollDetail struct {
	PayrollRecord
	EmployeeName string `db:"employee_name" json:"employee_name"`
}

// PayrollFilter scopes payroll listings.
type PayrollFilter struct {
	EmployeeID string
	Period     string
	Status     *PayrollStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
