package types

// CatalogListing is an entry of the buyer demo catalog.
type CatalogListing struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Price    int64  `json:"price"`

	// Size is free text such as "2 acres"; the leading number is used for
	// size filtering.
	Size  string `json:"size"`
	Type  string `json:"type"`
	Image string `json:"image"`
}
