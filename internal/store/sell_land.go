package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/landreg/apiserver/types"
)

// SellLandRepository handles persistence for sale requests, the public sell
// list and the declined archive. Every state transition runs in one transaction.
type SellLandRepository struct {
	db *sqlx.DB
}

func NewSellLandRepository(db *sqlx.DB) *SellLandRepository {
	return &SellLandRepository{db: db}
}

type sellLandRow struct {
	ID                 int64      `db:"id"`
	LandID             int64      `db:"land_id"`
	UserID             int64      `db:"user_id"`
	UserSnapshot       []byte     `db:"user_snapshot"`
	LandSnapshot       []byte     `db:"land_snapshot"`
	Price              float64    `db:"price"`
	LandImageURL       string     `db:"land_image_url"`
	Negotiable         bool       `db:"negotiable"`
	ContactPhoneNumber string     `db:"contact_phone_number"`
	Status             string     `db:"status"`
	ReviewedBy         string     `db:"reviewed_by"`
	ReviewedAt         *time.Time `db:"reviewed_at"`
	CreatedAt          time.Time  `db:"created_at"`
}

func (row sellLandRow) toSellLand() (types.SellLand, error) {
	req := types.SellLand{
		ID:                 row.ID,
		Price:              row.Price,
		LandImageURL:       row.LandImageURL,
		Negotiable:         row.Negotiable,
		ContactPhoneNumber: row.ContactPhoneNumber,
		Status:             types.SellLandStatus(row.Status),
		ReviewedBy:         row.ReviewedBy,
		ReviewedAt:         row.ReviewedAt,
		CreatedAt:          row.CreatedAt,
	}
	if err := decodeJSON("user_snapshot", row.UserSnapshot, &req.User); err != nil {
		return types.SellLand{}, fmt.Errorf("sell land %d: %w", row.ID, err)
	}
	if err := decodeJSON("land_snapshot", row.LandSnapshot, &req.Land); err != nil {
		return types.SellLand{}, fmt.Errorf("sell land %d: %w", row.ID, err)
	}
	req.User.UserID = row.UserID
	req.Land.LandID = row.LandID
	return req, nil
}

type declinedLandRow struct {
	ID                 int64     `db:"id"`
	SellLandID         int64     `db:"sell_land_id"`
	UserSnapshot       []byte    `db:"user_snapshot"`
	LandSnapshot       []byte    `db:"land_snapshot"`
	Price              float64   `db:"price"`
	LandImageURL       string    `db:"land_image_url"`
	Negotiable         bool      `db:"negotiable"`
	ContactPhoneNumber string    `db:"contact_phone_number"`
	DeclinedAt         time.Time `db:"declined_at"`
}

func (row declinedLandRow) toDeclinedLand() (types.DeclinedLand, error) {
	declined := types.DeclinedLand{
		ID:                 row.ID,
		SellLandID:         row.SellLandID,
		Price:              row.Price,
		LandImageURL:       row.LandImageURL,
		Negotiable:         row.Negotiable,
		ContactPhoneNumber: row.ContactPhoneNumber,
		DeclinedAt:         row.DeclinedAt,
	}
	if err := decodeJSON("user_snapshot", row.UserSnapshot, &declined.User); err != nil {
		return types.DeclinedLand{}, fmt.Errorf("declined land %d: %w", row.ID, err)
	}
	if err := decodeJSON("land_snapshot", row.LandSnapshot, &declined.Land); err != nil {
		return types.DeclinedLand{}, fmt.Errorf("declined land %d: %w", row.ID, err)
	}
	return declined, nil
}

const sellLandColumns = `id, land_id, user_id, user_snapshot, land_snapshot, price, land_image_url, negotiable,
	contact_phone_number, status, reviewed_by, reviewed_at, created_at`

func (r *SellLandRepository) Get(ctx context.Context, id int64) (types.SellLand, error) {
	var row sellLandRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+sellLandColumns+` FROM sell_lands WHERE id = $1`, id); err != nil {
		return types.SellLand{}, wrap("get sell land", err)
	}
	return row.toSellLand()
}

// List returns sale requests, newest first. An empty status matches all.
func (r *SellLandRepository) List(ctx context.Context, status types.SellLandStatus) ([]types.SellLand, error) {
	query := `SELECT ` + sellLandColumns + ` FROM sell_lands`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var rows []sellLandRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap("list sell lands", err)
	}
	out := make([]types.SellLand, 0, len(rows))
	for _, row := range rows {
		req, err := row.toSellLand()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// HasPending reports whether a pending request exists for the land.
func (r *SellLandRepository) HasPending(ctx context.Context, landID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM sell_lands WHERE land_id = $1 AND status = 'pending')`, landID)
	if err != nil {
		return false, wrap("check pending sell land", err)
	}
	return exists, nil
}

// Submit moves the land from available to pending and inserts the pending
// request. ErrStateChanged means the land was not available; ErrConflict
// means another pending request won the race.
func (r *SellLandRepository) Submit(ctx context.Context, req types.SellLand) (types.SellLand, error) {
	userJSON, err := json.Marshal(req.User)
	if err != nil {
		return types.SellLand{}, err
	}
	landJSON, err := json.Marshal(req.Land)
	if err != nil {
		return types.SellLand{}, err
	}
	req.Status = types.SellPending
	req.CreatedAt = time.Now()

	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE lands
			SET status = 'pending', price = $2, sale_description = $3, negotiable = $4
			WHERE id = $1 AND owner_id = $5 AND status = 'available'`,
			req.Land.LandID, req.Price, req.Land.SaleDescription, req.Negotiable, req.User.UserID)
		if err := requireAffected("mark land pending", result, err); err != nil {
			return err
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO sell_lands (
				land_id, user_id, user_snapshot, land_snapshot, price, land_image_url, negotiable,
				contact_phone_number, status, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			req.Land.LandID,
			req.User.UserID,
			userJSON,
			landJSON,
			req.Price,
			req.LandImageURL,
			req.Negotiable,
			req.ContactPhoneNumber,
			req.Status,
			req.CreatedAt,
		).Scan(&req.ID)
		return wrap("create sell land", err)
	})
	if err != nil {
		return types.SellLand{}, err
	}
	return req, nil
}

// Approve marks a pending request approved, marks its land sold and
// publishes the listing. The listing id is assigned by the database.
func (r *SellLandRepository) Approve(ctx context.Context, id int64, reviewer string, listing types.SellListing) (types.SellListing, error) {
	reviewedAt := time.Now()
	listing.SellLandID = id
	listing.CreatedAt = reviewedAt

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		landID, err := markReviewed(ctx, tx, id, types.SellApproved, reviewer, reviewedAt)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE lands SET status = 'sold' WHERE id = $1 AND status = 'pending'`, landID)
		if err := requireAffected("mark land sold", result, err); err != nil {
			return err
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO sell_list (sell_land_id, title, location, land_type, price, size, image, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			listing.SellLandID,
			listing.Title,
			listing.Location,
			listing.LandType,
			listing.Price,
			listing.Size,
			listing.Image,
			listing.Description,
			listing.CreatedAt,
		).Scan(&listing.ID)
		return wrap("create sell listing", err)
	})
	if err != nil {
		return types.SellListing{}, err
	}
	return listing, nil
}

// Decline marks a pending request declined, returns its land to available
// with the price cleared and archives the request.
func (r *SellLandRepository) Decline(ctx context.Context, id int64, reviewer string) (types.DeclinedLand, error) {
	declinedAt := time.Now()
	var declined declinedLandRow

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		landID, err := markReviewed(ctx, tx, id, types.SellDeclined, reviewer, declinedAt)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE lands
			SET status = 'available', price = NULL, sale_description = '', negotiable = FALSE
			WHERE id = $1 AND status = 'pending'`, landID)
		if err := requireAffected("release land", result, err); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &declined, `
			INSERT INTO declined_lands (
				sell_land_id, user_snapshot, land_snapshot, price, land_image_url, negotiable,
				contact_phone_number, declined_at
			)
			SELECT id, user_snapshot, land_snapshot, price, land_image_url, negotiable, contact_phone_number, $2
			FROM sell_lands
			WHERE id = $1
			RETURNING id, sell_land_id, user_snapshot, land_snapshot, price, land_image_url, negotiable,
				contact_phone_number, declined_at`,
			id, declinedAt)
		return wrap("archive declined land", err)
	})
	if err != nil {
		return types.DeclinedLand{}, err
	}
	return declined.toDeclinedLand()
}

func markReviewed(ctx context.Context, tx *sqlx.Tx, id int64, status types.SellLandStatus, reviewer string, at time.Time) (int64, error) {
	var landID int64
	err := tx.QueryRowxContext(ctx, `
		UPDATE sell_lands
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING land_id`,
		id, status, reviewer, at,
	).Scan(&landID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrStateChanged
	}
	if err != nil {
		return 0, wrap("review sell land", err)
	}
	return landID, nil
}

// ListSellList returns one page of public listings in id order and the total count.
func (r *SellLandRepository) ListSellList(ctx context.Context, offset, limit int) ([]types.SellListing, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM sell_list`); err != nil {
		return nil, 0, wrap("count sell list", err)
	}

	listings := make([]types.SellListing, 0, limit)
	err := r.db.SelectContext(ctx, &listings, `
		SELECT id, sell_land_id, title, location, land_type, price, size, image, description, created_at
		FROM sell_list
		ORDER BY id
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, wrap("list sell list", err)
	}
	return listings, total, nil
}

// ListDeclined returns the declined archive, newest first.
func (r *SellLandRepository) ListDeclined(ctx context.Context) ([]types.DeclinedLand, error) {
	var rows []declinedLandRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, sell_land_id, user_snapshot, land_snapshot, price, land_image_url, negotiable,
			contact_phone_number, declined_at
		FROM declined_lands
		ORDER BY declined_at DESC, id DESC`)
	if err != nil {
		return nil, wrap("list declined lands", err)
	}
	out := make([]types.DeclinedLand, 0, len(rows))
	for _, row := range rows {
		declined, err := row.toDeclinedLand()
		if err != nil {
			return nil, err
		}
		out = append(out, declined)
	}
	return out, nil
}
