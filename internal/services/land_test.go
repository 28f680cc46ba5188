package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/landreg/apiserver/internal/mq"
	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/internal/store/memstore"
	"github.com/landreg/apiserver/internal/validation"
	"github.com/landreg/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterLandCopiesOwnerDetails(t *testing.T) {
	f := newFixture(t)
	owner := f.registerUser(t, "asha")

	land := f.registerLand(t, owner.ID)
	assert.Equal(t, owner.ID, land.OwnerID)
	assert.Equal(t, types.OwnerDetails{Name: "asha", Email: "asha@example.com", PhoneNumber: "9876543210"}, land.OwnerDetails)
	assert.Equal(t, types.LandAvailable, land.Status)
	assert.Nil(t, land.Price)

	events := f.broker.Published(types.EventLandRegistered)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventLandRegistered, events[0].Attributes["type"])
	assert.NotEmpty(t, events[0].Attributes[mq.OrderingKeyAttr])
}

func TestRegisterLandValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "asha")

	in := landInput()
	in.Location.Pincode = "30200"
	in.Area.Unit = "bigha"
	_, err := f.lands.Register(ctx, owner.ID, in)
	var verr *validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("location.pincode"))
	assert.True(t, verr.Has("area.unit"))

	_, err = f.lands.Register(ctx, 999, landInput())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPendingLandRequiresPrice(t *testing.T) {
	land := types.Land{
		OwnerID:      1,
		OwnerDetails: types.OwnerDetails{Name: "a", Email: "a@example.com"},
		Title:        "t",
		Description:  "d",
		Location:     types.Location{Address: "a", City: "c", State: "s", Pincode: "123456"},
		Area:         types.Area{Value: 1, Unit: "sqft"},
		PropertyType: "residential",
		Status:       types.LandAvailable,
	}
	assert.NoError(t, validation.Struct(land))

	land.Status = types.LandPending
	assert.Error(t, validation.Struct(land))
}

func TestRegisterLandWithFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "asha")

	in := landInput()
	in.Images = nil
	in.DocumentIDs = nil
	land, err := f.lands.RegisterWithFiles(ctx, owner.ID, in, []LandFile{
		{Field: FileLandImage, Filename: "plot.jpg", ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("img")},
		{Field: FileLandDoc, Filename: "deed.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("deed")},
		{Field: FilePanDoc, Filename: "pan.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("pan")},
	})
	require.NoError(t, err)
	require.Len(t, land.Images, 1)
	require.Len(t, land.DocumentIDs, 1)
	assert.True(t, strings.HasPrefix(land.Images[0], "lands/1/landImage-"))
	assert.True(t, strings.HasSuffix(land.DocumentIDs[0], ".pdf"))
	assert.NotEmpty(t, land.PanDoc)
	assert.Empty(t, land.AadhaarDoc)
	assert.Len(t, f.objects.Keys(), 3)

	r, err := f.lands.OpenFile(ctx, owner.ID, land.DocumentIDs[0])
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "deed", string(data))

	_, err = f.lands.OpenFile(ctx, owner.ID+1, land.DocumentIDs[0])
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.lands.OpenFile(ctx, owner.ID, "lands/1/missing.pdf")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterLandWithFilesRequiresImageAndDocument(t *testing.T) {
	f := newFixture(t)
	owner := f.registerUser(t, "asha")

	_, err := f.lands.RegisterWithFiles(context.Background(), owner.ID, landInput(), []LandFile{
		{Field: FileLandImage, Filename: "plot.jpg", Body: strings.NewReader("img")},
	})
	var verr *validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("landDoc"))
	assert.False(t, verr.Has("landImage"))
	assert.Empty(t, f.objects.Keys())
}

func TestRegisterLandWithFilesWithoutStorage(t *testing.T) {
	db := memstore.New()
	lands := NewLandService(db.Lands(), db.Users(), nil, nil, zap.NewNop())

	_, err := lands.RegisterWithFiles(context.Background(), 1, landInput(), nil)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = lands.OpenFile(context.Background(), 1, "lands/1/x.jpg")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestListLandsAndStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "asha")
	land := f.registerLand(t, owner.ID)

	all, err := f.lands.ListByOwner(ctx, owner.ID, "all", "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	sold, err := f.lands.ListByOwner(ctx, owner.ID, "sold", "likes")
	require.NoError(t, err)
	assert.Empty(t, sold)

	_, err = f.lands.ListByOwner(ctx, owner.ID, "lost", "random")
	var verr *validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("status"))
	assert.True(t, verr.Has("sort"))

	stats, err := f.lands.IncrementStat(ctx, land.ID, "likes")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Likes)

	_, err = f.lands.IncrementStat(ctx, land.ID, "shares")
	assert.ErrorIs(t, err, ErrInvalidStatistic)
	_, err = f.lands.IncrementStat(ctx, 999, "views")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.lands.Get(ctx, owner.ID+1, land.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
