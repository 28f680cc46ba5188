package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/internal/validation"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// GovtEmployeeRepository defines persistence operations for government employees.
type GovtEmployeeRepository interface {
	GetByID(ctx context.Context, id int64) (types.GovtEmployee, error)
	GetByEmail(ctx context.Context, email string) (types.GovtEmployee, error)
	Exists(ctx context.Context, empID, email string) (bool, error)
	Create(ctx context.Context, emp types.GovtEmployee) (types.GovtEmployee, error)
}

// RegisterGovtInput is the sign-up form of a government employee.
type RegisterGovtInput struct {
	EmpID      string `json:"empId" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Department string `json:"department" validate:"required"`
}

// GovtService encapsulates reviewer account use-cases.
type GovtService struct {
	repo     GovtEmployeeRepository
	log      *zap.Logger
	hashCost int
}

func NewGovtService(repo GovtEmployeeRepository, log *zap.Logger) *GovtService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GovtService{repo: repo, log: log, hashCost: bcrypt.DefaultCost}
}

func (s *GovtService) Register(ctx context.Context, in RegisterGovtInput) (types.GovtEmployee, error) {
	in.EmpID = strings.TrimSpace(in.EmpID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Department = strings.TrimSpace(in.Department)
	if err := validation.Struct(in); err != nil {
		return types.GovtEmployee{}, err
	}

	exists, err := s.repo.Exists(ctx, in.EmpID, in.Email)
	if err != nil {
		return types.GovtEmployee{}, err
	}
	if exists {
		return types.GovtEmployee{}, fmt.Errorf("employee %w", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.GovtEmployee{}, fmt.Errorf("hash password: %w", err)
	}

	emp, err := s.repo.Create(ctx, types.GovtEmployee{
		EmpID:        in.EmpID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Department:   in.Department,
		Role:         types.RoleGovernment,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.GovtEmployee{}, fmt.Errorf("employee %w", ErrConflict)
		}
		return types.GovtEmployee{}, err
	}
	s.log.Info("government employee registered", zap.Int64("employee_id", emp.ID), zap.String("emp_id", emp.EmpID))
	return emp, nil
}

func (s *GovtService) Authenticate(ctx context.Context, email, password string) (types.GovtEmployee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return types.GovtEmployee{}, ErrInvalidCredentials
	}
	emp, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.GovtEmployee{}, ErrInvalidCredentials
		}
		return types.GovtEmployee{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return types.GovtEmployee{}, ErrInvalidCredentials
	}
	return emp, nil
}

func (s *GovtService) GetByID(ctx context.Context, id int64) (types.GovtEmployee, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return types.GovtEmployee{}, fmt.Errorf("employee %w", store.ErrNotFound)
	}
	return emp, err
}
