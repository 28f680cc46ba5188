package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/landreg/apiserver/types"
)

// GovtEmployeeRepository handles persistence for government employees.
type GovtEmployeeRepository struct {
	db *sqlx.DB
}

func NewGovtEmployeeRepository(db *sqlx.DB) *GovtEmployeeRepository {
	return &GovtEmployeeRepository{db: db}
}

const govtEmployeeColumns = `id, emp_id, name, email, password_hash, department, role, created_at`

func (r *GovtEmployeeRepository) GetByID(ctx context.Context, id int64) (types.GovtEmployee, error) {
	var emp types.GovtEmployee
	err := r.db.GetContext(ctx, &emp, `SELECT `+govtEmployeeColumns+` FROM govt_employees WHERE id = $1`, id)
	if err != nil {
		return types.GovtEmployee{}, wrap("get govt employee", err)
	}
	return emp, nil
}

func (r *GovtEmployeeRepository) GetByEmail(ctx context.Context, email string) (types.GovtEmployee, error) {
	var emp types.GovtEmployee
	err := r.db.GetContext(ctx, &emp, `SELECT `+govtEmployeeColumns+` FROM govt_employees WHERE email = $1`, email)
	if err != nil {
		return types.GovtEmployee{}, wrap("get govt employee by email", err)
	}
	return emp, nil
}

// Exists reports whether the employee id or email is already registered.
func (r *GovtEmployeeRepository) Exists(ctx context.Context, empID, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM govt_employees WHERE emp_id = $1 OR email = $2)`, empID, email)
	if err != nil {
		return false, wrap("check govt employee", err)
	}
	return exists, nil
}

func (r *GovtEmployeeRepository) Create(ctx context.Context, emp types.GovtEmployee) (types.GovtEmployee, error) {
	emp.CreatedAt = time.Now()
	emp.Role = types.RoleGovernment

	const query = `
		INSERT INTO govt_employees (emp_id, name, email, password_hash, department, role, created_at)
		VALUES (:emp_id, :name, :email, :password_hash, :department, :role, :created_at)
		RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, emp)
	if err != nil {
		return types.GovtEmployee{}, wrap("create govt employee", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&emp.ID); err != nil {
			return types.GovtEmployee{}, wrap("create govt employee", err)
		}
	}
	if err := rows.Err(); err != nil {
		return types.GovtEmployee{}, wrap("create govt employee", err)
	}
	return emp, nil
}
