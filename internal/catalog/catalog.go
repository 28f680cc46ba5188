// Package catalog serves the buyer demo listings. A Catalog is immutable
// after construction and safe for concurrent reads.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/landreg/apiserver/internal/validation"
	"github.com/landreg/apiserver/types"
)

//go:embed catalog.json
var defaultDataset []byte

type Catalog struct {
	listings []types.CatalogListing
	byID     map[int]int
}

// New builds a catalog over a copy of listings, keeping their order.
func New(listings []types.CatalogListing) *Catalog {
	c := &Catalog{
		listings: append([]types.CatalogListing(nil), listings...),
		byID:     make(map[int]int, len(listings)),
	}
	for i, listing := range c.listings {
		if _, dup := c.byID[listing.ID]; !dup {
			c.byID[listing.ID] = i
		}
	}
	return c
}

// Load reads the catalog from a JSON file, or the embedded dataset when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultDataset
	if strings.TrimSpace(path) != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	var listings []types.CatalogListing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(listings), nil
}

// Len returns the number of listings.
func (c *Catalog) Len() int {
	return len(c.listings)
}

// Get returns the listing with the given id.
func (c *Catalog) Get(id int) (types.CatalogListing, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.CatalogListing{}, false
	}
	return c.listings[i], true
}

// Filter narrows a search. Zero values and nil bounds do not filter.
type Filter struct {
	Query    string
	Location string
	Type     string
	MinPrice *int64
	MaxPrice *int64
	MinSize  *float64
	MaxSize  *float64
}

func (f Filter) sized() bool {
	return f.MinSize != nil || f.MaxSize != nil
}

// ParseFilter reads a Filter from query parameters. Malformed numbers are
// reported as *validation.Errors.
func ParseFilter(values url.Values) (Filter, error) {
	f := Filter{
		Query:    strings.TrimSpace(values.Get("q")),
		Location: strings.TrimSpace(values.Get("location")),
		Type:     strings.TrimSpace(values.Get("type")),
	}
	var errs []validation.FieldError

	parseInt := func(name string) *int64 {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, validation.FieldError{Field: name, Message: "must be an integer"})
			return nil
		}
		return &v
	}
	parseFloat := func(name string) *float64 {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, validation.FieldError{Field: name, Message: "must be a number"})
			return nil
		}
		return &v
	}

	f.MinPrice = parseInt("minPrice")
	f.MaxPrice = parseInt("maxPrice")
	f.MinSize = parseFloat("minSize")
	f.MaxSize = parseFloat("maxSize")
	if len(errs) > 0 {
		return Filter{}, &validation.Errors{Fields: errs}
	}
	return f, nil
}

// Search applies the filter passes in order and returns matches in dataset order.
func (c *Catalog) Search(f Filter) []types.CatalogListing {
	out := make([]types.CatalogListing, 0, len(c.listings))
	query := strings.ToLower(f.Query)
	for _, listing := range c.listings {
		if query != "" &&
			!strings.Contains(strings.ToLower(listing.Title), query) &&
			!strings.Contains(strings.ToLower(listing.Location), query) &&
			!strings.Contains(strings.ToLower(listing.Type), query) {
			continue
		}
		if f.Location != "" && !strings.EqualFold(listing.Location, f.Location) {
			continue
		}
		if f.Type != "" && !strings.EqualFold(listing.Type, f.Type) {
			continue
		}
		if f.MinPrice != nil && listing.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && listing.Price > *f.MaxPrice {
			continue
		}
		if f.sized() {
			size, ok := SizeValue(listing.Size)
			if !ok {
				continue
			}
			if f.MinSize != nil && size < *f.MinSize {
				continue
			}
			if f.MaxSize != nil && size > *f.MaxSize {
				continue
			}
		}
		out = append(out, listing)
	}
	return out
}

// SizeValue parses the leading numeric token of a size such as "2 acres".
func SizeValue(size string) (float64, bool) {
	fields := strings.Fields(size)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
