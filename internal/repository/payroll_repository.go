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

// PayrollRepository provides database access for payroll records.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository creates a new instance of PayrollRepository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// FindByID returns a payroll record with the employee name resolved.
func (r *PayrollRepository) FindByID(ctx context.Context, id string) (*models.PayrollDetail, error) {
	const query = `SELECT pr.id, pr.employee_id, pr.period, pr.base_salary, pr.allowance, pr.deduction, pr.total, pr.status, pr.paid_at, pr.created_at, pr.updated_at,
	e.full_name AS employee_name
FROM payroll_records pr
JOIN employees e ON e.id = pr.employee_id
WHERE pr.id = $1 LIMIT 1`
	var record models.PayrollDetail
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payroll by id: %w", err)
	}
	return &record, nil
}

// ExistsForPeriod reports whether a record exists for the employee and period.
func (r *PayrollRepository) ExistsForPeriod(ctx context.Context, employeeID, period string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM payroll_records WHERE employee_id = $1 AND period = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, employeeID, period); err != nil {
		return false, fmt.Errorf("check payroll period: %w", err)
	}
	return exists, nil
}

// Create inserts a new payroll record.
func (r *PayrollRepository) Create(ctx context.Context, record *models.PayrollRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	const query = `INSERT INTO payroll_records (id, employee_id, period, base_salary, allowance, deduction, total, status, paid_at, created_at, updated_at) VALUES (:id, :employee_id, :period, :base_salary, :allowance, :deduction, :total, :status, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create payroll record: %w", err)
	}
	return nil
}

// UpdateStatus moves a payroll record to a new status.
func (r *PayrollRepository) UpdateStatus(ctx context.Context, id string, status models.PayrollStatus, paidAt *time.Time) error {
	const query = `UPDATE payroll_records SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, paidAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update payroll status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payroll status rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns payroll records based on filters with total count.
func (r *PayrollRepository) List(ctx context.Context, filter models.PayrollFilter) ([]models.PayrollDetail, int, error) {
	baseQuery := `FROM payroll_records pr JOIN employees e ON e.id = pr.employee_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("pr.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("pr.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("pr.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"period":     "pr.period",
		"total":      "pr.total",
		"status":     "pr.status",
		"employee":   "e.full_name",
		"created_at": "pr.created_at",
	}
	sortColumn, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortColumn = "pr.created_at"
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

	listQuery := fmt.Sprintf(`SELECT pr.id, pr.employee_id, pr.period, pr.base_salary, pr.allowance, pr.deduction, pr.total, pr.status, pr.paid_at, pr.created_at, pr.updated_at,
	e.full_name AS employee_name
%s ORDER BY %s %s LIMIT %d OFFSET %d`, baseQuery, sortColumn, sortOrder, pageSize, offset)

	var records []models.PayrollDetail
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list payroll records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payroll records: %w", err)
	}

	return records, total, nil
}

// SumPaidBetween sums paid payroll totals whose paid_at falls in the range.
func (r *PayrollRepository) SumPaidBetween(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `SELECT COALESCE(SUM(total), 0) FROM payroll_records WHERE status = 'PAID' AND paid_at >= $1 AND paid_at <= $2`
	var total int64
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("sum paid payroll: %w", err)
	}
	return total, nil
}
