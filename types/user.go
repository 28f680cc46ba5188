package types

import "time"

// Roles a user account can carry.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Address is a postal address attached to a user profile.
type Address struct {
	Line1   string `json:"line1,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// User represents a registered account of a land owner or buyer.
// It contains identity, KYC identifiers, demographic details and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id"`

	// Name is the user's full name. Names are unique across the registry.
	Name string `json:"name"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username"`

	// Email is the user's email address and the login identifier.
	Email string `json:"email"`

	// Role indicates the user's authorization level ("user" or "admin").
	Role string `json:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-"`

	// PhoneNumber is a ten digit Indian mobile number.
	PhoneNumber string `json:"phoneNumber,omitempty"`

	// AadhaarNumber is the twelve digit Aadhaar identifier, unique when present.
	AadhaarNumber string `json:"aadhaarNumber,omitempty"`

	// PanNumber is the ten character PAN identifier, unique when present.
	PanNumber string `json:"panNumber,omitempty"`

	// Address is the user's residential address.
	Address Address `json:"address"`

	// DateOfBirth is the user's date of birth, if provided.
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`

	Nationality string `json:"nationality,omitempty"`
	Gender      string `json:"gender,omitempty"`
	FatherName  string `json:"fatherName,omitempty"`
	Occupation  string `json:"occupation,omitempty"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt"`
}
