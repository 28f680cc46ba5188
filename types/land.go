package types

import "time"

// LandStatus is the availability state of a land parcel.
type LandStatus string

const (
	LandAvailable LandStatus = "available"
	LandPending   LandStatus = "pending"
	LandSold      LandStatus = "sold"
)

// Valid reports whether s is a known land status.
func (s LandStatus) Valid() bool {
	switch s {
	case LandAvailable, LandPending, LandSold:
		return true
	default:
		return false
	}
}

// Accepted values for Area.Unit and Land.PropertyType.
const (
	AreaUnits     = "sqft sqm acre hectare"
	PropertyTypes = "residential commercial agricultural industrial"
)

// Location is the postal location of a land parcel.
type Location struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required,pincode"`
}

// Area is the size of a land parcel with its unit of measurement.
type Area struct {
	Value float64 `json:"value" validate:"gte=0"`
	Unit  string  `json:"unit" validate:"required,oneof=sqft sqm acre hectare"`
}

// OwnerDetails is a snapshot of the owner's contact fields taken when the land
// is registered. Later profile changes do not propagate.
type OwnerDetails struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,inphone"`
}

// Statistics tracks buyer engagement with a land listing.
type Statistics struct {
	Views     int64 `json:"views" db:"views"`
	Likes     int64 `json:"likes" db:"likes"`
	Inquiries int64 `json:"inquiries" db:"inquiries"`
}

// Land represents a registered land parcel.
//
// Price is required exactly when Status is LandPending; the constraint is
// checked on every write and backed by a table CHECK constraint.
type Land struct {
	// ID is the unique identifier of the land record.
	ID int64 `json:"id"`

	// OwnerID references the owning user. The reference is weak: deleting a
	// user does not cascade.
	OwnerID int64 `json:"owner" validate:"required"`

	// OwnerDetails is the denormalised owner snapshot used for display.
	OwnerDetails OwnerDetails `json:"userDetails"`

	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Location    Location `json:"location"`
	Area        Area     `json:"area"`

	// PropertyType is one of PropertyTypes.
	PropertyType string `json:"propertyType" validate:"required,oneof=residential commercial agricultural industrial"`

	// DocumentIDs lists legal document identifiers or uploaded document keys.
	DocumentIDs []string `json:"documentIds" validate:"dive,required"`

	// Images lists image URLs or uploaded object keys.
	Images []string `json:"images"`

	// AadhaarDoc and PanDoc are object keys of optional identity documents
	// uploaded with the registration form.
	AadhaarDoc string `json:"aadhaarDoc,omitempty"`
	PanDoc     string `json:"panDoc,omitempty"`

	Status LandStatus `json:"status" validate:"required,oneof=available pending sold"`

	// Price is the asking price in INR.
	Price *float64 `json:"price,omitempty" validate:"required_if=Status pending,omitempty,gte=0"`

	SaleDescription string     `json:"saleDescription,omitempty"`
	Negotiable      bool       `json:"negotiable"`
	Statistics      Statistics `json:"statistics"`

	RegistrationDate time.Time `json:"registrationDate"`
}
