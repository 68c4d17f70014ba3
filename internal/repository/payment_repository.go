package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sekolahku/sekolahku-api/internal/models"
)

// PaymentRepository provides database access for student billing records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByID returns a payment with the student name resolved.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.StudentPaymentDetail, error) {
	const query = `SELECT p.id, p.student_id, p.description, p.period, p.amount, p.status, p.paid_at, p.created_at, p.updated_at,
	s.full_name AS student_name
FROM student_payments p
JOIN students s ON s.id = p.student_id
WHERE p.id = $1 LIMIT 1`
	var payment models.StudentPaymentDetail
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by id: %w", err)
	}
	return &payment, nil
}

// Create inserts a new billing record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.StudentPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const query = `INSERT INTO student_payments (id, student_id, description, period, amount, status, paid_at, created_at, updated_at) VALUES (:id, :student_id, :description, :period, :amount, :status, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// UpdateStatus moves a payment to a new status, stamping paid_at when given.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, paidAt *time.Time) error {
	const query = `UPDATE student_payments SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, paidAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns billing records based on filters with total count.
func (r *PaymentRepository) List(ctx context.Context, filter models.StudentPaymentFilter) ([]models.StudentPaymentDetail, int, error) {
	baseQuery := `FROM student_payments p JOIN students s ON s.id = p.student_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("p.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"period":     "p.period",
		"amount":     "p.amount",
		"status":     "p.status",
		"student":    "s.full_name",
		"created_at": "p.created_at",
	}
	sortColumn, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortColumn = "p.created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT p.id, p.student_id, p.description, p.period, p.amount, p.status, p.paid_at, p.created_at, p.updated_at,
	s.full_name AS student_name
%s ORDER BY %s %s LIMIT %d OFFSET %d`, baseQuery, sortColumn, sortOrder, pageSize, offset)

	var payments []models.StudentPaymentDetail
	if err := r.db.SelectContext(ctx, &payments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	return payments, total, nil
}

// SumPaidBetween sums paid billing amounts whose paid_at falls in the range.
func (r *PaymentRepository) SumPaidBetween(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM student_payments WHERE status = 'PAID' AND paid_at >= $1 AND paid_at <= $2`
	var total int64
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("sum paid payments: %w", err)
	}
	return total, nil
}
