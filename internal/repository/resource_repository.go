package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sekolahku/sekolahku-api/internal/models"
)

// ResourceRepository executes generic CRUD against registry-described tables.
// All identifiers (table, columns) come from the static ResourceSpec
// allow-list, never from the request, so string-building the SQL is safe.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new instance of ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// ResourceQuery captures the parsed list options for a generic resource.
// Filters hold equality matches on allow-listed columns only.
type ResourceQuery struct {
	Filters         map[string]string
	IncludeInactive bool
	OrderBy         string
	Ascending       bool
	Page            int
	PageSize        int
}

func normalizeRow(row map[string]interface{}) map[string]interface{} {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}

// List returns rows matching the query with a total count.
func (r *ResourceRepository) List(ctx context.Context, spec models.ResourceSpec, query ResourceQuery) ([]map[string]interface{}, int, error) {
	baseQuery := fmt.Sprintf("FROM %s WHERE 1=1", spec.Table)
	var conditions []string
	var args []interface{}

	if spec.SoftDelete && !query.IncludeInactive {
		conditions = append(conditions, "active = true")
	}

	// Deterministic condition order for stable SQL.
	cols := make([]string, 0, len(query.Filters))
	for col := range query.Filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		if !spec.HasColumn(col) {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", col, len(args)+1))
		args = append(args, query.Filters[col])
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	orderBy := query.OrderBy
	if orderBy == "" || !spec.HasColumn(orderBy) {
		orderBy = spec.PrimaryKey
	}
	direction := "DESC"
	if query.Ascending {
		direction = "ASC"
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT * %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, orderBy, direction, pageSize, offset)

	rows, err := r.db.QueryxContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", spec.Name, err)
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, 0, fmt.Errorf("scan %s row: %w", spec.Name, err)
		}
		results = append(results, normalizeRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s rows: %w", spec.Name, err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", spec.Name, err)
	}

	return results, total, nil
}

// Get returns one row by primary key.
func (r *ResourceRepository) Get(ctx context.Context, spec models.ResourceSpec, id string) (map[string]interface{}, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1", spec.Table, spec.PrimaryKey)
	row := r.db.QueryRowxContext(ctx, query, id)
	result := map[string]interface{}{}
	if err := row.MapScan(result); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get %s: %w", spec.Name, err)
	}
	return normalizeRow(result), nil
}

// Create inserts a row from allow-listed column values and returns the stored
// row. An id is generated when the payload does not carry one.
func (r *ResourceRepository) Create(ctx context.Context, spec models.ResourceSpec, values map[string]interface{}) (map[string]interface{}, error) {
	if _, ok := values[spec.PrimaryKey]; !ok {
		values[spec.PrimaryKey] = uuid.NewString()
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		if spec.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)

	placeholders := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for i, col := range cols {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, values[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		spec.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	row := r.db.QueryRowxContext(ctx, query, args...)
	result := map[string]interface{}{}
	if err := row.MapScan(result); err != nil {
		return nil, fmt.Errorf("create %s: %w", spec.Name, err)
	}
	return normalizeRow(result), nil
}

// Update applies allow-listed column values to one row and returns it.
func (r *ResourceRepository) Update(ctx context.Context, spec models.ResourceSpec, id string, values map[string]interface{}) (map[string]interface{}, error) {
	cols := make([]string, 0, len(values))
	for col := range values {
		if spec.HasColumn(col) && col != spec.PrimaryKey {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	if len(cols) == 0 {
		return r.Get(ctx, spec, id)
	}

	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, values[col])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING *",
		spec.Table, strings.Join(sets, ", "), spec.PrimaryKey, len(args))

	row := r.db.QueryRowxContext(ctx, query, args...)
	result := map[string]interface{}{}
	if err := row.MapScan(result); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update %s: %w", spec.Name, err)
	}
	return normalizeRow(result), nil
}

// SoftDelete flips the active flag on a soft-deleted table.
func (r *ResourceRepository) SoftDelete(ctx context.Context, spec models.ResourceSpec, id string) error {
	query := fmt.Sprintf("UPDATE %s SET active = false, updated_at = $2 WHERE %s = $1", spec.Table, spec.PrimaryKey)
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", spec.Name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete %s rows affected: %w", spec.Name, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HardDelete permanently removes a row.
func (r *ResourceRepository) HardDelete(ctx context.Context, spec models.ResourceSpec, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", spec.Table, spec.PrimaryKey)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", spec.Name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s rows affected: %w", spec.Name, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
