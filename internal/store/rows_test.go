package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	var images []string
	require.NoError(t, decodeJSON("images", nil, &images))
	require.NoError(t, decodeJSON("images", []byte("null"), &images))
	assert.Nil(t, images)

	require.NoError(t, decodeJSON("images", []byte(`["a.jpg","b.jpg"]`), &images))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, images)

	err := decodeJSON("images", []byte(`{"broken"`), &images)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode images")
}

func TestRowConvertersRejectCorruptJSON(t *testing.T) {
	_, err := landRow{ID: 7, DocumentIDs: []byte(`["DOC-1"]`), Images: []byte(`not json`)}.toLand()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "land 7")

	land, err := landRow{ID: 8, DocumentIDs: []byte(`["DOC-1"]`), Images: []byte(`[]`)}.toLand()
	require.NoError(t, err)
	assert.Equal(t, []string{"DOC-1"}, land.DocumentIDs)

	_, err = sellLandRow{ID: 3, UserSnapshot: []byte(`{`), LandSnapshot: []byte(`{}`)}.toSellLand()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_snapshot")

	req, err := sellLandRow{ID: 4, UserID: 2, LandID: 9, UserSnapshot: []byte(`{}`), LandSnapshot: []byte(`{}`)}.toSellLand()
	require.NoError(t, err)
	assert.Equal(t, int64(2), req.User.UserID)
	assert.Equal(t, int64(9), req.Land.LandID)

	_, err = declinedLandRow{ID: 5, UserSnapshot: []byte(`{}`), LandSnapshot: []byte(`[1]`)}.toDeclinedLand()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "land_snapshot")

	_, err = userRow{ID: 6, Address: []byte(`"street"`)}.toUser()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 6")

	user, err := userRow{ID: 6}.toUser()
	require.NoError(t, err)
	assert.Equal(t, int64(6), user.ID)
}
