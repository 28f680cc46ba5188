package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/types"
)

type LandRepository struct {
	s *Store
}

func (r *LandRepository) Create(ctx context.Context, land types.Land) (types.Land, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextLand++
	land.ID = r.s.nextLand
	if land.RegistrationDate.IsZero() {
		land.RegistrationDate = r.s.now()
	}
	r.s.lands[land.ID] = cloneLand(land)
	return cloneLand(land), nil
}

func (r *LandRepository) Get(ctx context.Context, id int64) (types.Land, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	land, ok := r.s.lands[id]
	if !ok {
		return types.Land{}, store.ErrNotFound
	}
	return cloneLand(land), nil
}

func (r *LandRepository) ListByOwner(ctx context.Context, ownerID int64, opts store.LandListOptions) ([]types.Land, error) {
	r.s.mu.RLock()
	out := make([]types.Land, 0)
	for _, land := range r.s.lands {
		if land.OwnerID != ownerID {
			continue
		}
		if opts.Status != "" && land.Status != opts.Status {
			continue
		}
		out = append(out, cloneLand(land))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch opts.Sort {
		case store.SortOldest:
			if !a.RegistrationDate.Equal(b.RegistrationDate) {
				return a.RegistrationDate.Before(b.RegistrationDate)
			}
			return a.ID < b.ID
		case store.SortViews:
			if a.Statistics.Views != b.Statistics.Views {
				return a.Statistics.Views > b.Statistics.Views
			}
		case store.SortLikes:
			if a.Statistics.Likes != b.Statistics.Likes {
				return a.Statistics.Likes > b.Statistics.Likes
			}
		default:
			if !a.RegistrationDate.Equal(b.RegistrationDate) {
				return a.RegistrationDate.After(b.RegistrationDate)
			}
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (r *LandRepository) IncrementStat(ctx context.Context, id int64, stat store.Statistic) (types.Statistics, error) {
	if !stat.Valid() {
		return types.Statistics{}, fmt.Errorf("unknown statistic %q", stat)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	land, ok := r.s.lands[id]
	if !ok {
		return types.Statistics{}, store.ErrNotFound
	}
	switch stat {
	case store.StatViews:
		land.Statistics.Views++
	case store.StatLikes:
		land.Statistics.Likes++
	case store.StatInquiries:
		land.Statistics.Inquiries++
	}
	r.s.lands[id] = land
	return land.Statistics, nil
}
