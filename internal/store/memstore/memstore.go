// Package memstore keeps every repository in process memory. It applies the
// same uniqueness and state guards as the PostgreSQL repositories and is used
// for local development (DB_DRIVER=memory) and tests. Data is lost on exit.
package memstore

import (
	"sync"
	"time"

	"github.com/landreg/apiserver/types"
)

// Store holds all tables behind one lock so multi-table transitions are atomic.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users    map[int64]types.User
	govt     map[int64]types.GovtEmployee
	lands    map[int64]types.Land
	sells    map[int64]types.SellLand
	listings []types.SellListing
	declined []types.DeclinedLand

	nextUser     int64
	nextGovt     int64
	nextLand     int64
	nextSell     int64
	nextListing  int64
	nextDeclined int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:   time.Now,
		users: make(map[int64]types.User),
		govt:  make(map[int64]types.GovtEmployee),
		lands: make(map[int64]types.Land),
		sells: make(map[int64]types.SellLand),
	}
}

// Users returns the user repository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// GovtEmployees returns the government employee repository.
func (s *Store) GovtEmployees() *GovtEmployeeRepository { return &GovtEmployeeRepository{s: s} }

// Lands returns the land repository.
func (s *Store) Lands() *LandRepository { return &LandRepository{s: s} }

// SellLands returns the sale request repository.
func (s *Store) SellLands() *SellLandRepository { return &SellLandRepository{s: s} }

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

func cloneLand(land types.Land) types.Land {
	land.DocumentIDs = cloneStrings(land.DocumentIDs)
	land.Images = cloneStrings(land.Images)
	if land.Price != nil {
		price := *land.Price
		land.Price = &price
	}
	return land
}

func cloneSnapshot(snap types.LandSnapshot) types.LandSnapshot {
	snap.DocumentIDs = cloneStrings(snap.DocumentIDs)
	snap.Images = cloneStrings(snap.Images)
	return snap
}
