package services

import (
	"context"
	"testing"

	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.users.Register(ctx, RegisterUserInput{
		Name:          "Asha Verma",
		Username:      "asha",
		Email:         " Asha@Example.com ",
		Password:      "secret1",
		AadhaarNumber: "123412341234",
		PanNumber:     "abcde1234f",
		DateOfBirth:   "1990-04-12",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, "ABCDE1234F", user.PanNumber)
	assert.Equal(t, "user", user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	require.NotNil(t, user.DateOfBirth)
	assert.Equal(t, 1990, user.DateOfBirth.Year())

	_, err = f.users.Register(ctx, RegisterUserInput{
		Name: "Other", Username: "other", Email: "asha@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "user already exists")

	_, err = f.users.Register(ctx, RegisterUserInput{
		Name: "Other", Username: "other", Email: "other@example.com", Password: "secret1",
	})
	assert.NoError(t, err)
}

func TestRegisterUserValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Register(context.Background(), RegisterUserInput{
		Username:      "x",
		Email:         "not-an-email",
		Password:      "123",
		AadhaarNumber: "12",
		DateOfBirth:   "12/04/1990",
	})
	var verr *validation.Errors
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "email", "password", "aadhaarNumber", "dateOfBirth"} {
		assert.True(t, verr.Has(field), field)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	registered := f.registerUser(t, "ravi")

	user, err := f.users.Authenticate(ctx, "RAVI@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, wrongPassword := f.users.Authenticate(ctx, "ravi@example.com", "nope")
	_, unknownEmail := f.users.Authenticate(ctx, "ghost@example.com", "secret1")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err = f.users.GetByID(ctx, 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGovtRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.govt.Register(ctx, RegisterGovtInput{Email: "officer@gov.in"})
	var verr *validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("empId"))
	assert.True(t, verr.Has("department"))

	emp, err := f.govt.Register(ctx, RegisterGovtInput{
		EmpID: "EMP-1", Name: "Officer", Email: "officer@gov.in", Password: "secret1", Department: "Revenue",
	})
	require.NoError(t, err)
	assert.Equal(t, "government", emp.Role)

	_, err = f.govt.Register(ctx, RegisterGovtInput{
		EmpID: "EMP-1", Name: "Other", Email: "other@gov.in", Password: "secret1", Department: "Revenue",
	})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := f.govt.Authenticate(ctx, "officer@gov.in", "secret1")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, got.ID)

	_, err = f.govt.Authenticate(ctx, "officer@gov.in", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
