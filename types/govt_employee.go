package types

import "time"

// RoleGovernment is the only role a government employee can hold.
const RoleGovernment = "government"

// GovtEmployee is a government officer allowed to review land sale requests.
type GovtEmployee struct {
	// ID is the unique identifier of the employee record.
	ID int64 `json:"id" db:"id"`

	// EmpID is the department-issued employee identifier. Unique.
	EmpID string `json:"empId" db:"emp_id"`

	Name string `json:"name" db:"name"`

	// Email is the login identifier. Unique.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the employee's password.
	PasswordHash string `json:"-" db:"password_hash"`

	Department string `json:"department" db:"department"`

	// Role is always RoleGovernment.
	Role string `json:"role" db:"role"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
