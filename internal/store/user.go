package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/landreg/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID            int64          `db:"id"`
	Name          string         `db:"name"`
	Username      string         `db:"username"`
	Email         string         `db:"email"`
	Role          string         `db:"role"`
	PasswordHash  string         `db:"password_hash"`
	PhoneNumber   string         `db:"phone_number"`
	AadhaarNumber sql.NullString `db:"aadhaar_number"`
	PanNumber     sql.NullString `db:"pan_number"`
	Address       []byte         `db:"address"`
	DateOfBirth   *time.Time     `db:"date_of_birth"`
	Nationality   string         `db:"nationality"`
	Gender        string         `db:"gender"`
	FatherName    string         `db:"father_name"`
	Occupation    string         `db:"occupation"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (row userRow) toUser() (types.User, error) {
	user := types.User{
		ID:            row.ID,
		Name:          row.Name,
		Username:      row.Username,
		Email:         row.Email,
		Role:          row.Role,
		PasswordHash:  row.PasswordHash,
		PhoneNumber:   row.PhoneNumber,
		AadhaarNumber: row.AadhaarNumber.String,
		PanNumber:     row.PanNumber.String,
		DateOfBirth:   row.DateOfBirth,
		Nationality:   row.Nationality,
		Gender:        row.Gender,
		FatherName:    row.FatherName,
		Occupation:    row.Occupation,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if err := decodeJSON("address", row.Address, &user.Address); err != nil {
		return types.User{}, fmt.Errorf("user %d: %w", row.ID, err)
	}
	return user, nil
}

const userColumns = `id, name, username, email, role, password_hash, phone_number, aadhaar_number, pan_number,
	address, date_of_birth, nationality, gender, father_name, occupation, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return types.User{}, wrap("get user", err)
	}
	return row.toUser()
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email); err != nil {
		return types.User{}, wrap("get user by email", err)
	}
	return row.toUser()
}

// Exists reports whether any unique identifier of user is already taken.
func (r *UserRepository) Exists(ctx context.Context, user types.User) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE name = $1
			   OR username = $2
			   OR email = $3
			   OR ($4 <> '' AND aadhaar_number = $4)
			   OR ($5 <> '' AND pan_number = $5)
		)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query,
		user.Name, user.Username, user.Email, user.AadhaarNumber, user.PanNumber)
	if err != nil {
		return false, wrap("check user", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	addressJSON, err := json.Marshal(user.Address)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (
			name, username, email, role, password_hash, phone_number, aadhaar_number, pan_number,
			address, date_of_birth, nationality, gender, father_name, occupation, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`
	err = r.db.QueryRowxContext(
		ctx,
		query,
		user.Name,
		user.Username,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.PhoneNumber,
		nullString(user.AadhaarNumber),
		nullString(user.PanNumber),
		addressJSON,
		user.DateOfBirth,
		user.Nationality,
		user.Gender,
		user.FatherName,
		user.Occupation,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return types.User{}, wrap("create user", err)
	}
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
