package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/internal/validation"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const dateLayout = "2006-01-02"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Exists(ctx context.Context, user types.User) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// RegisterUserInput is the sign-up form of a user account.
type RegisterUserInput struct {
	Name          string        `json:"name" validate:"required"`
	Username      string        `json:"username" validate:"required"`
	Email         string        `json:"email" validate:"required,email"`
	Password      string        `json:"password" validate:"required,min=6"`
	PhoneNumber   string        `json:"phoneNumber" validate:"omitempty,inphone"`
	AadhaarNumber string        `json:"aadhaarNumber" validate:"omitempty,aadhaar"`
	PanNumber     string        `json:"panNumber" validate:"omitempty,pan"`
	Address       types.Address `json:"address"`
	DateOfBirth   string        `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Nationality   string        `json:"nationality"`
	Gender        string        `json:"gender"`
	FatherName    string        `json:"fatherName"`
	Occupation    string        `json:"occupation"`
}

func (in *RegisterUserInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.AadhaarNumber = strings.TrimSpace(in.AadhaarNumber)
	in.PanNumber = strings.ToUpper(strings.TrimSpace(in.PanNumber))
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo     UserRepository
	log      *zap.Logger
	hashCost int
}

func NewUserService(repo UserRepository, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{repo: repo, log: log, hashCost: bcrypt.DefaultCost}
}

// Register creates a user account with role user.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (types.User, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return types.User{}, err
	}

	user := types.User{
		Name:          in.Name,
		Username:      in.Username,
		Email:         in.Email,
		Role:          types.RoleUser,
		PhoneNumber:   in.PhoneNumber,
		AadhaarNumber: in.AadhaarNumber,
		PanNumber:     in.PanNumber,
		Address:       in.Address,
		Nationality:   strings.TrimSpace(in.Nationality),
		Gender:        strings.TrimSpace(in.Gender),
		FatherName:    strings.TrimSpace(in.FatherName),
		Occupation:    strings.TrimSpace(in.Occupation),
	}
	if in.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, in.DateOfBirth)
		if err != nil {
			return types.User{}, validation.New(validation.FieldError{Field: "dateOfBirth", Message: "is invalid"})
		}
		user.DateOfBirth = &dob
	}

	exists, err := s.repo.Exists(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	if exists {
		return types.User{}, fmt.Errorf("user %w", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, fmt.Errorf("user %w", ErrConflict)
		}
		return types.User{}, err
	}
	s.log.Info("user registered", zap.Int64("user_id", created.ID), zap.String("username", created.Username))
	return created, nil
}

// Authenticate verifies credentials. Unknown emails and wrong passwords both
// yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return types.User{}, ErrInvalidCredentials
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("user %w", store.ErrNotFound)
	}
	return user, err
}
