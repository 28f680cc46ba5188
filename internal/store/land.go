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

// LandSort orders an owner's land list.
type LandSort string

const (
	SortNewest LandSort = "newest"
	SortOldest LandSort = "oldest"
	SortViews  LandSort = "views"
	SortLikes  LandSort = "likes"
)

var landOrderBy = map[LandSort]string{
	SortNewest: "registration_date DESC, id DESC",
	SortOldest: "registration_date ASC, id ASC",
	SortViews:  "views DESC, id DESC",
	SortLikes:  "likes DESC, id DESC",
}

// Valid reports whether s is a known sort order.
func (s LandSort) Valid() bool {
	_, ok := landOrderBy[s]
	return ok
}

// LandListOptions filters an owner's land list. An empty Status matches all.
type LandListOptions struct {
	Status types.LandStatus
	Sort   LandSort
}

// Statistic names a land statistics counter.
type Statistic string

const (
	StatViews     Statistic = "views"
	StatLikes     Statistic = "likes"
	StatInquiries Statistic = "inquiries"
)

// Valid reports whether s is a known counter.
func (s Statistic) Valid() bool {
	return s == StatViews || s == StatLikes || s == StatInquiries
}

// LandRepository handles persistence for land parcels.
type LandRepository struct {
	db *sqlx.DB
}

func NewLandRepository(db *sqlx.DB) *LandRepository {
	return &LandRepository{db: db}
}

type landRow struct {
	ID               int64           `db:"id"`
	OwnerID          int64           `db:"owner_id"`
	OwnerName        string          `db:"owner_name"`
	OwnerEmail       string          `db:"owner_email"`
	OwnerPhone       string          `db:"owner_phone"`
	Title            string          `db:"title"`
	Description      string          `db:"description"`
	Address          string          `db:"address"`
	City             string          `db:"city"`
	State            string          `db:"state"`
	Pincode          string          `db:"pincode"`
	AreaValue        float64         `db:"area_value"`
	AreaUnit         string          `db:"area_unit"`
	PropertyType     string          `db:"property_type"`
	DocumentIDs      []byte          `db:"document_ids"`
	Images           []byte          `db:"images"`
	AadhaarDoc       string          `db:"aadhaar_doc"`
	PanDoc           string          `db:"pan_doc"`
	Status           string          `db:"status"`
	Price            sql.NullFloat64 `db:"price"`
	SaleDescription  string          `db:"sale_description"`
	Negotiable       bool            `db:"negotiable"`
	Views            int64           `db:"views"`
	Likes            int64           `db:"likes"`
	Inquiries        int64           `db:"inquiries"`
	RegistrationDate time.Time       `db:"registration_date"`
}

func (row landRow) toLand() (types.Land, error) {
	land := types.Land{
		ID:      row.ID,
		OwnerID: row.OwnerID,
		OwnerDetails: types.OwnerDetails{
			Name:        row.OwnerName,
			Email:       row.OwnerEmail,
			PhoneNumber: row.OwnerPhone,
		},
		Title:       row.Title,
		Description: row.Description,
		Location: types.Location{
			Address: row.Address,
			City:    row.City,
			State:   row.State,
			Pincode: row.Pincode,
		},
		Area:            types.Area{Value: row.AreaValue, Unit: row.AreaUnit},
		PropertyType:    row.PropertyType,
		AadhaarDoc:      row.AadhaarDoc,
		PanDoc:          row.PanDoc,
		Status:          types.LandStatus(row.Status),
		SaleDescription: row.SaleDescription,
		Negotiable:      row.Negotiable,
		Statistics: types.Statistics{
			Views:     row.Views,
			Likes:     row.Likes,
			Inquiries: row.Inquiries,
		},
		RegistrationDate: row.RegistrationDate,
	}
	if row.Price.Valid {
		price := row.Price.Float64
		land.Price = &price
	}
	if err := decodeJSON("document_ids", row.DocumentIDs, &land.DocumentIDs); err != nil {
		return types.Land{}, fmt.Errorf("land %d: %w", row.ID, err)
	}
	if err := decodeJSON("images", row.Images, &land.Images); err != nil {
		return types.Land{}, fmt.Errorf("land %d: %w", row.ID, err)
	}
	return land, nil
}

const landColumns = `id, owner_id, owner_name, owner_email, owner_phone, title, description,
	address, city, state, pincode, area_value, area_unit, property_type, document_ids, images,
	aadhaar_doc, pan_doc, status, price, sale_description, negotiable, views, likes, inquiries, registration_date`

func (r *LandRepository) Create(ctx context.Context, land types.Land) (types.Land, error) {
	if land.RegistrationDate.IsZero() {
		land.RegistrationDate = time.Now()
	}
	docsJSON, err := json.Marshal(nonNil(land.DocumentIDs))
	if err != nil {
		return types.Land{}, err
	}
	imagesJSON, err := json.Marshal(nonNil(land.Images))
	if err != nil {
		return types.Land{}, err
	}

	const query = `
		INSERT INTO lands (
			owner_id, owner_name, owner_email, owner_phone, title, description,
			address, city, state, pincode, area_value, area_unit, property_type,
			document_ids, images, aadhaar_doc, pan_doc, status, price, sale_description,
			negotiable, registration_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`
	err = r.db.QueryRowxContext(
		ctx,
		query,
		land.OwnerID,
		land.OwnerDetails.Name,
		land.OwnerDetails.Email,
		land.OwnerDetails.PhoneNumber,
		land.Title,
		land.Description,
		land.Location.Address,
		land.Location.City,
		land.Location.State,
		land.Location.Pincode,
		land.Area.Value,
		land.Area.Unit,
		land.PropertyType,
		docsJSON,
		imagesJSON,
		land.AadhaarDoc,
		land.PanDoc,
		land.Status,
		land.Price,
		land.SaleDescription,
		land.Negotiable,
		land.RegistrationDate,
	).Scan(&land.ID)
	if err != nil {
		return types.Land{}, wrap("create land", err)
	}
	return land, nil
}

func (r *LandRepository) Get(ctx context.Context, id int64) (types.Land, error) {
	var row landRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+landColumns+` FROM lands WHERE id = $1`, id); err != nil {
		return types.Land{}, wrap("get land", err)
	}
	return row.toLand()
}

func (r *LandRepository) ListByOwner(ctx context.Context, ownerID int64, opts LandListOptions) ([]types.Land, error) {
	orderBy, ok := landOrderBy[opts.Sort]
	if !ok {
		orderBy = landOrderBy[SortNewest]
	}
	query := `SELECT ` + landColumns + ` FROM lands WHERE owner_id = $1`
	args := []any{ownerID}
	if opts.Status != "" {
		query += ` AND status = $2`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY ` + orderBy

	var rows []landRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap("list lands", err)
	}
	lands := make([]types.Land, 0, len(rows))
	for _, row := range rows {
		land, err := row.toLand()
		if err != nil {
			return nil, err
		}
		lands = append(lands, land)
	}
	return lands, nil
}

// IncrementStat adds one to the named counter and returns the updated statistics.
func (r *LandRepository) IncrementStat(ctx context.Context, id int64, stat Statistic) (types.Statistics, error) {
	if !stat.Valid() {
		return types.Statistics{}, fmt.Errorf("unknown statistic %q", stat)
	}
	query := fmt.Sprintf(
		`UPDATE lands SET %[1]s = %[1]s + 1 WHERE id = $1 RETURNING views, likes, inquiries`, stat)
	var stats types.Statistics
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		return types.Statistics{}, wrap("increment land statistic", err)
	}
	return stats, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
