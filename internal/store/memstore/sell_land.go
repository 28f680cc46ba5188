package memstore

import (
	"context"
	"sort"

	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/types"
)

type SellLandRepository struct {
	s *Store
}

func cloneSellLand(req types.SellLand) types.SellLand {
	req.Land = cloneSnapshot(req.Land)
	if req.ReviewedAt != nil {
		at := *req.ReviewedAt
		req.ReviewedAt = &at
	}
	return req
}

func (r *SellLandRepository) Get(ctx context.Context, id int64) (types.SellLand, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.sells[id]
	if !ok {
		return types.SellLand{}, store.ErrNotFound
	}
	return cloneSellLand(req), nil
}

func (r *SellLandRepository) List(ctx context.Context, status types.SellLandStatus) ([]types.SellLand, error) {
	r.s.mu.RLock()
	out := make([]types.SellLand, 0, len(r.s.sells))
	for _, req := range r.s.sells {
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, cloneSellLand(req))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *SellLandRepository) HasPending(ctx context.Context, landID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.hasPending(landID), nil
}

func (s *Store) hasPending(landID int64) bool {
	for _, req := range s.sells {
		if req.Land.LandID == landID && req.Status == types.SellPending {
			return true
		}
	}
	return false
}

func (r *SellLandRepository) Submit(ctx context.Context, req types.SellLand) (types.SellLand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	land, ok := r.s.lands[req.Land.LandID]
	if !ok || land.OwnerID != req.User.UserID || land.Status != types.LandAvailable {
		return types.SellLand{}, store.ErrStateChanged
	}
	if r.s.hasPending(land.ID) {
		return types.SellLand{}, store.ErrConflict
	}

	price := req.Price
	land.Status = types.LandPending
	land.Price = &price
	land.SaleDescription = req.Land.SaleDescription
	land.Negotiable = req.Negotiable
	r.s.lands[land.ID] = land

	r.s.nextSell++
	req.ID = r.s.nextSell
	req.Status = types.SellPending
	req.CreatedAt = r.s.now()
	req = cloneSellLand(req)
	r.s.sells[req.ID] = req
	return cloneSellLand(req), nil
}

// review applies the status change to a pending request and returns it along
// with its land. Callers hold the write lock.
func (s *Store) review(id int64, status types.SellLandStatus, reviewer string) (types.SellLand, types.Land, error) {
	req, ok := s.sells[id]
	if !ok {
		return types.SellLand{}, types.Land{}, store.ErrNotFound
	}
	if req.Status != types.SellPending {
		return types.SellLand{}, types.Land{}, store.ErrStateChanged
	}
	land, ok := s.lands[req.Land.LandID]
	if !ok || land.Status != types.LandPending {
		return types.SellLand{}, types.Land{}, store.ErrStateChanged
	}
	at := s.now()
	req.Status = status
	req.ReviewedBy = reviewer
	req.ReviewedAt = &at
	return req, land, nil
}

func (r *SellLandRepository) Approve(ctx context.Context, id int64, reviewer string, listing types.SellListing) (types.SellListing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, land, err := r.s.review(id, types.SellApproved, reviewer)
	if err != nil {
		return types.SellListing{}, err
	}
	land.Status = types.LandSold

	r.s.nextListing++
	listing.ID = r.s.nextListing
	listing.SellLandID = id
	listing.CreatedAt = *req.ReviewedAt

	r.s.sells[id] = req
	r.s.lands[land.ID] = land
	r.s.listings = append(r.s.listings, listing)
	return listing, nil
}

func (r *SellLandRepository) Decline(ctx context.Context, id int64, reviewer string) (types.DeclinedLand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, land, err := r.s.review(id, types.SellDeclined, reviewer)
	if err != nil {
		return types.DeclinedLand{}, err
	}
	land.Status = types.LandAvailable
	land.Price = nil
	land.SaleDescription = ""
	land.Negotiable = false

	r.s.nextDeclined++
	declined := types.DeclinedLand{
		ID:                 r.s.nextDeclined,
		SellLandID:         req.ID,
		User:               req.User,
		Land:               cloneSnapshot(req.Land),
		Price:              req.Price,
		LandImageURL:       req.LandImageURL,
		Negotiable:         req.Negotiable,
		ContactPhoneNumber: req.ContactPhoneNumber,
		DeclinedAt:         *req.ReviewedAt,
	}

	r.s.sells[id] = req
	r.s.lands[land.ID] = land
	r.s.declined = append(r.s.declined, declined)
	return declined, nil
}

func (r *SellLandRepository) ListSellList(ctx context.Context, offset, limit int) ([]types.SellListing, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := len(r.s.listings)
	if offset >= total {
		return []types.SellListing{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return append([]types.SellListing(nil), r.s.listings[offset:end]...), total, nil
}

func (r *SellLandRepository) ListDeclined(ctx context.Context) ([]types.DeclinedLand, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]types.DeclinedLand, 0, len(r.s.declined))
	for i := len(r.s.declined) - 1; i >= 0; i-- {
		out = append(out, r.s.declined[i])
	}
	return out, nil
}
