package types

import "time"

// Event channels published by the sell workflow.
const (
	EventLandRegistered = "land.registered"
	EventSaleSubmitted  = "land.sale.submitted"
	EventSaleApproved   = "land.sale.approved"
	EventSaleDeclined   = "land.sale.declined"
)

// EventChannels lists every channel in publication order of a land's lifecycle.
var EventChannels = []string{
	EventLandRegistered,
	EventSaleSubmitted,
	EventSaleApproved,
	EventSaleDeclined,
}

// Event is the JSON payload of a domain event.
type Event struct {
	Type       string    `json:"type"`
	SellLandID int64     `json:"sellLandId,omitempty"`
	LandID     int64     `json:"landId"`
	OwnerID    int64     `json:"ownerId,omitempty"`
	ListingID  int64     `json:"listingId,omitempty"`
	Price      float64   `json:"price,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
