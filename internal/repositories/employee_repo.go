package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/roster/internal/database"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// EmployeeRepository stores employee records in Postgres. Every query is
// scoped to the owning account.
type EmployeeRepository struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{pool: db.Pool}
}

var (
	employeeColumnsOnce sync.Once
	optionalColumns     []string
	selectList          string
)

// employeeColumns derives the column lists from the Employee struct so the
// queries always cover every optional field.
func employeeColumns() {
	optionalColumns = models.OptionalEmployeeFields()

	cols := []string{"id::text", "owner_id::text", "email", "full_name"}
	for _, name := range optionalColumns {
		cols = append(cols, selectExpr(name))
	}
	cols = append(cols, "created_at", "updated_at")
	selectList = strings.Join(cols, ", ")
}

func selectExpr(name string) string {
	if kind, _ := models.EmployeeFieldKind(name); kind == models.KindDate {
		return name + "::text AS " + name
	}
	return name
}

// columnValue returns the query argument for an optional column.
func columnValue(e *models.Employee, name string) any {
	v := e.Get(name)
	if list, ok := v.([]string); ok {
		return pq.Array(list)
	}
	return v
}

// scanEmployeeRow populates an Employee from a row selected with selectList
func scanEmployeeRow(row rowScanner) (*models.Employee, error) {
	var e models.Employee

	dest := make([]interface{}, 0, len(optionalColumns)+6)
	dest = append(dest, &e.ID, &e.OwnerID, &e.Email, &e.FullName)
	for _, name := range optionalColumns {
		ptr, _ := e.FieldPointer(name)
		dest = append(dest, ptr)
	}
	dest = append(dest, &e.CreatedAt, &e.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &e, nil
}

func scanEmployeeRows(rows pgx.Rows) ([]*models.Employee, error) {
	defer rows.Close()

	employees := make([]*models.Employee, 0)

	for rows.Next() {
		e, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employee rows: %w", err)
	}

	return employees, nil
}

// FindByEmails returns the lower-cased addresses among emails that the owner already has on file.
func (r *EmployeeRepository) FindByEmails(ctx context.Context, ownerID string, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}

	query := `
		SELECT DISTINCT lower(email)
		FROM employees
		WHERE owner_id = $1 AND lower(email) = ANY($2)
	`

	rows, err := r.pool.Query(ctx, query, ownerID, pq.Array(lowered))
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		found = append(found, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating email rows: %w", err)
	}

	return found, nil
}

// Create inserts an employee and returns the stored row.
func (r *EmployeeRepository) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	employeeColumnsOnce.Do(employeeColumns)

	cols := append([]string{"owner_id", "email", "full_name"}, optionalColumns...)
	args := []interface{}{e.OwnerID, e.Email, e.FullName}
	for _, name := range optionalColumns {
		args = append(args, columnValue(e, name))
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO employees (%s) VALUES (%s) RETURNING %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), selectList,
	)

	created, err := scanEmployeeRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces every stored field of an existing employee.
func (r *EmployeeRepository) Update(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	employeeColumnsOnce.Do(employeeColumns)

	sets := []string{"email = $3", "full_name = $4"}
	args := []interface{}{e.ID, e.OwnerID, e.Email, e.FullName}
	for _, name := range optionalColumns {
		args = append(args, columnValue(e, name))
		sets = append(sets, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	args = append(args, time.Now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	query := fmt.Sprintf(
		"UPDATE employees SET %s WHERE id = $1 AND owner_id = $2 RETURNING %s",
		strings.Join(sets, ", "), selectList,
	)

	updated, err := scanEmployeeRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes an employee.
func (r *EmployeeRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM employees WHERE id = $1 AND owner_id = $2`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Employee, error) {
	employeeColumnsOnce.Do(employeeColumns)

	query := fmt.Sprintf("SELECT %s FROM employees WHERE id = $1 AND owner_id = $2", selectList)

	return scanEmployeeRow(r.pool.QueryRow(ctx, query, id, ownerID))
}

// ListByOwner returns all of an owner's employees in creation order.
func (r *EmployeeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Employee, error) {
	employeeColumnsOnce.Do(employeeColumns)

	query := fmt.Sprintf(
		"SELECT %s FROM employees WHERE owner_id = $1 ORDER BY created_at, id",
		selectList,
	)

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}

	return scanEmployeeRows(rows)
}
