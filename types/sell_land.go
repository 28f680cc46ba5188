package types

import "time"

// SellLandStatus is the review state of a sale request.
type SellLandStatus string

const (
	SellPending  SellLandStatus = "pending"
	SellApproved SellLandStatus = "approved"
	SellDeclined SellLandStatus = "declined"
)

// Valid reports whether s is a known sale request status.
func (s SellLandStatus) Valid() bool {
	switch s {
	case SellPending, SellApproved, SellDeclined:
		return true
	default:
		return false
	}
}

// SellerSnapshot is the seller's contact information at submission time.
type SellerSnapshot struct {
	UserID      int64  `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// LandSnapshot is a copy of the land fields shown to reviewers and buyers.
type LandSnapshot struct {
	LandID          int64    `json:"landId"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Location        Location `json:"location"`
	Area            Area     `json:"area"`
	PropertyType    string   `json:"propertyType"`
	DocumentIDs     []string `json:"documentIds"`
	SaleDescription string   `json:"saleDescription"`
	Images          []string `json:"images"`
}

// SellLand is a request by an owner to put a land parcel on the public sell list.
// At most one pending request exists per land.
type SellLand struct {
	// ID is the unique identifier of the request.
	ID int64 `json:"id"`

	// User is the seller snapshot.
	User SellerSnapshot `json:"user"`

	// Land is the land snapshot.
	Land LandSnapshot `json:"land"`

	// Price is the asking price in INR.
	Price float64 `json:"price"`

	// LandImageURL is the image shown on the public listing.
	LandImageURL string `json:"landImageUrl,omitempty"`

	Negotiable bool `json:"negotiable"`

	// ContactPhoneNumber overrides the seller's phone number for buyer contact.
	ContactPhoneNumber string `json:"contactPhoneNumber,omitempty"`

	Status SellLandStatus `json:"status"`

	// ReviewedBy names the reviewer identity ("government:12", "user:3").
	ReviewedBy string     `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// SellListing is an approved land shown on the public sell list.
type SellListing struct {
	// ID is a database-generated, monotonically increasing display id.
	ID int64 `json:"id" db:"id"`

	SellLandID  int64   `json:"sellLandId" db:"sell_land_id"`
	Title       string  `json:"title" db:"title"`
	Location    string  `json:"location" db:"location"`
	LandType    string  `json:"landType" db:"land_type"`
	Price       float64 `json:"price" db:"price"`
	Size        float64 `json:"size" db:"size"`
	Image       string  `json:"image" db:"image"`
	Description string  `json:"description" db:"description"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// DeclinedLand archives a declined sale request. Records are never modified.
type DeclinedLand struct {
	ID                 int64          `json:"id"`
	SellLandID         int64          `json:"sellLandId"`
	User               SellerSnapshot `json:"user"`
	Land               LandSnapshot   `json:"land"`
	Price              float64        `json:"price"`
	LandImageURL       string         `json:"landImageUrl,omitempty"`
	Negotiable         bool           `json:"negotiable"`
	ContactPhoneNumber string         `json:"contactPhoneNumber,omitempty"`
	DeclinedAt         time.Time      `json:"declinedAt"`
}
