package services

import (
	"context"
	"testing"

	"github.com/landreg/apiserver/internal/mq"
	"github.com/landreg/apiserver/internal/storage"
	"github.com/landreg/apiserver/internal/store/memstore"
	"github.com/landreg/apiserver/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db      *memstore.Store
	objects *storage.MemoryClient
	broker  *mq.MemoryBroker
	users   *UserService
	govt    *GovtService
	lands   *LandService
	sells   *SellService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	objects := storage.NewMemoryClient("test")
	broker := mq.NewMemoryBroker()
	events := NewEventPublisher(mq.New(broker), zap.NewNop())

	users := NewUserService(db.Users(), zap.NewNop())
	users.hashCost = bcrypt.MinCost
	govt := NewGovtService(db.GovtEmployees(), zap.NewNop())
	govt.hashCost = bcrypt.MinCost

	return &fixture{
		db:      db,
		objects: objects,
		broker:  broker,
		users:   users,
		govt:    govt,
		lands:   NewLandService(db.Lands(), db.Users(), storage.NewStorage(objects), events, zap.NewNop()),
		sells:   NewSellService(db.SellLands(), db.Lands(), db.Users(), events, zap.NewNop()),
	}
}

func (f *fixture) registerUser(t *testing.T, name string) types.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), RegisterUserInput{
		Name:        name,
		Username:    name,
		Email:       name + "@example.com",
		Password:    "secret1",
		PhoneNumber: "9876543210",
	})
	require.NoError(t, err)
	return user
}

func landInput() RegisterLandInput {
	return RegisterLandInput{
		Title:        "Green Acres",
		Description:  "Two acres of farmland near Jaipur",
		Location:     types.Location{Address: "NH 8", City: "Jaipur", State: "Rajasthan", Pincode: "302001"},
		Area:         types.Area{Value: 2, Unit: "acre"},
		PropertyType: "agricultural",
		DocumentIDs:  []string{"DEED-1"},
		Images:       []string{"https://img.example.com/1.jpg"},
	}
}

func (f *fixture) registerLand(t *testing.T, ownerID int64) types.Land {
	t.Helper()
	land, err := f.lands.Register(context.Background(), ownerID, landInput())
	require.NoError(t, err)
	return land
}
