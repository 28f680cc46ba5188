package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/internal/validation"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

// PlaceholderImage is the listing image used when a land has none.
const PlaceholderImage = "https://via.placeholder.com/150"

// SellLandRepository defines persistence operations for the sell workflow.
// Submit, Approve and Decline are atomic and return store.ErrStateChanged
// when their row guards do not match.
type SellLandRepository interface {
	Get(ctx context.Context, id int64) (types.SellLand, error)
	List(ctx context.Context, status types.SellLandStatus) ([]types.SellLand, error)
	HasPending(ctx context.Context, landID int64) (bool, error)
	Submit(ctx context.Context, req types.SellLand) (types.SellLand, error)
	Approve(ctx context.Context, id int64, reviewer string, listing types.SellListing) (types.SellListing, error)
	Decline(ctx context.Context, id int64, reviewer string) (types.DeclinedLand, error)
	ListSellList(ctx context.Context, offset, limit int) ([]types.SellListing, int, error)
	ListDeclined(ctx context.Context) ([]types.DeclinedLand, error)
}

// SubmitSaleInput is an owner's request to put a land up for sale.
type SubmitSaleInput struct {
	LandID             int64   `json:"landId" validate:"required"`
	Price              float64 `json:"price" validate:"gt=0"`
	LandImageURL       string  `json:"landImageUrl"`
	Negotiable         bool    `json:"negotiable"`
	ContactPhoneNumber string  `json:"contactPhoneNumber" validate:"omitempty,inphone"`
	SaleDescription    string  `json:"saleDescription"`
}

// ReviewAction is the decision taken on a pending sale request.
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionDecline ReviewAction = "decline"
)

// ReviewResult is the outcome of a review. Exactly one of Listing and
// Declined is set.
type ReviewResult struct {
	Message  string              `json:"message"`
	SellLand types.SellLand      `json:"sellLand"`
	Listing  *types.SellListing  `json:"listing,omitempty"`
	Declined *types.DeclinedLand `json:"declined,omitempty"`
}

// SellService encapsulates the sell workflow.
type SellService struct {
	sells  SellLandRepository
	lands  LandRepository
	users  UserRepository
	events *EventPublisher
	log    *zap.Logger
}

func NewSellService(sells SellLandRepository, lands LandRepository, users UserRepository, events *EventPublisher, log *zap.Logger) *SellService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SellService{sells: sells, lands: lands, users: users, events: events, log: log}
}

// Submit creates a pending sale request for a land owned by ownerID and
// moves the land to pending.
func (s *SellService) Submit(ctx context.Context, ownerID int64, in SubmitSaleInput) (types.SellLand, error) {
	in.LandImageURL = strings.TrimSpace(in.LandImageURL)
	in.ContactPhoneNumber = strings.TrimSpace(in.ContactPhoneNumber)
	in.SaleDescription = strings.TrimSpace(in.SaleDescription)
	if err := validation.Struct(in); err != nil {
		return types.SellLand{}, err
	}

	land, err := s.lands.Get(ctx, in.LandID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.SellLand{}, fmt.Errorf("land %w", store.ErrNotFound)
		}
		return types.SellLand{}, err
	}
	if land.OwnerID != ownerID {
		return types.SellLand{}, ErrForbidden
	}
	if land.Status != types.LandAvailable {
		return types.SellLand{}, ErrAlreadyListed
	}
	pending, err := s.sells.HasPending(ctx, land.ID)
	if err != nil {
		return types.SellLand{}, err
	}
	if pending {
		return types.SellLand{}, ErrAlreadyListed
	}

	seller, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.SellLand{}, fmt.Errorf("user %w", store.ErrNotFound)
		}
		return types.SellLand{}, err
	}

	saleDescription := in.SaleDescription
	if saleDescription == "" {
		saleDescription = land.SaleDescription
	}
	req := types.SellLand{
		User: types.SellerSnapshot{
			UserID:      seller.ID,
			Name:        seller.Name,
			Email:       seller.Email,
			PhoneNumber: seller.PhoneNumber,
		},
		Land: types.LandSnapshot{
			LandID:          land.ID,
			Title:           land.Title,
			Description:     land.Description,
			Location:        land.Location,
			Area:            land.Area,
			PropertyType:    land.PropertyType,
			DocumentIDs:     land.DocumentIDs,
			SaleDescription: saleDescription,
			Images:          land.Images,
		},
		Price:              in.Price,
		LandImageURL:       in.LandImageURL,
		Negotiable:         in.Negotiable,
		ContactPhoneNumber: in.ContactPhoneNumber,
	}
	if req.LandImageURL == "" && len(land.Images) > 0 {
		req.LandImageURL = land.Images[0]
	}
	if req.ContactPhoneNumber == "" {
		req.ContactPhoneNumber = seller.PhoneNumber
	}

	created, err := s.sells.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, store.ErrStateChanged) || errors.Is(err, store.ErrConflict) {
			return types.SellLand{}, ErrAlreadyListed
		}
		return types.SellLand{}, err
	}

	s.log.Info("sale request submitted",
		zap.Int64("sell_land_id", created.ID),
		zap.Int64("land_id", land.ID),
		zap.Float64("price", created.Price),
	)
	s.events.Publish(ctx, types.Event{
		Type:       types.EventSaleSubmitted,
		SellLandID: created.ID,
		LandID:     land.ID,
		OwnerID:    ownerID,
		Price:      created.Price,
	})
	return created, nil
}

// List returns sale requests for reviewers. Status "" or "all" lists every request.
func (s *SellService) List(ctx context.Context, status string) ([]types.SellLand, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" || status == "all" {
		return s.sells.List(ctx, "")
	}
	st := types.SellLandStatus(status)
	if !st.Valid() {
		return nil, validation.New(validation.FieldError{
			Field:   "status",
			Message: "must be one of: all, pending, approved, declined",
		})
	}
	return s.sells.List(ctx, st)
}

// Review approves or declines a pending request. reviewer identifies the caller.
func (s *SellService) Review(ctx context.Context, id int64, action ReviewAction, reviewer string) (ReviewResult, error) {
	if action != ActionApprove && action != ActionDecline {
		return ReviewResult{}, ErrInvalidAction
	}

	req, err := s.sells.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ReviewResult{}, fmt.Errorf("sale request %w", store.ErrNotFound)
		}
		return ReviewResult{}, err
	}
	if req.Status != types.SellPending {
		return ReviewResult{}, ErrAlreadyProcessed
	}

	var result ReviewResult
	event := types.Event{SellLandID: req.ID, LandID: req.Land.LandID, OwnerID: req.User.UserID, Price: req.Price}
	reviewed := req
	reviewed.ReviewedBy = reviewer

	switch action {
	case ActionApprove:
		listing, err := s.sells.Approve(ctx, id, reviewer, listingFor(req))
		if err != nil {
			return ReviewResult{}, reviewError(err)
		}
		result.Message = "Land approved and added to sell list"
		result.Listing = &listing
		event.Type = types.EventSaleApproved
		event.ListingID = listing.ID
		reviewed.Status = types.SellApproved
		reviewed.ReviewedAt = &listing.CreatedAt
	case ActionDecline:
		declined, err := s.sells.Decline(ctx, id, reviewer)
		if err != nil {
			return ReviewResult{}, reviewError(err)
		}
		result.Message = "Land declined and added to declined list"
		result.Declined = &declined
		event.Type = types.EventSaleDeclined
		reviewed.Status = types.SellDeclined
		reviewed.ReviewedAt = &declined.DeclinedAt
	}

	// The transition has committed, so a failed reload keeps the local view.
	if stored, err := s.sells.Get(ctx, id); err != nil {
		s.log.Warn("reload reviewed sale request", zap.Int64("sell_land_id", id), zap.Error(err))
	} else {
		reviewed = stored
	}
	result.SellLand = reviewed

	s.log.Info("sale request reviewed",
		zap.Int64("sell_land_id", id),
		zap.String("action", string(action)),
		zap.String("reviewer", reviewer),
	)
	s.events.Publish(ctx, event)
	return result, nil
}

func reviewError(err error) error {
	if errors.Is(err, store.ErrStateChanged) {
		return ErrAlreadyProcessed
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("sale request %w", store.ErrNotFound)
	}
	return err
}

func listingFor(req types.SellLand) types.SellListing {
	image := req.LandImageURL
	if image == "" && len(req.Land.Images) > 0 {
		image = req.Land.Images[0]
	}
	if image == "" {
		image = PlaceholderImage
	}
	return types.SellListing{
		SellLandID:  req.ID,
		Title:       req.Land.Title,
		Location:    req.Land.Location.City + ", " + req.Land.Location.State,
		LandType:    req.Land.PropertyType,
		Price:       req.Price,
		Size:        req.Land.Area.Value,
		Image:       image,
		Description: req.Land.Description,
	}
}

// SellList returns one page of the public sell list.
func (s *SellService) SellList(ctx context.Context, offset, limit int) ([]types.SellListing, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.sells.ListSellList(ctx, offset, limit)
}

// Declined returns the declined archive.
func (s *SellService) Declined(ctx context.Context) ([]types.DeclinedLand, error) {
	return s.sells.ListDeclined(ctx)
}
