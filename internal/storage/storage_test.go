package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLandObjectKey(t *testing.T) {
	key := LandObjectKey(12, "landImage", "Plot.JPG")
	assert.True(t, strings.HasPrefix(key, "lands/12/landImage-"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.True(t, strings.HasPrefix(key, LandObjectPrefix(12)))
	assert.NoError(t, ValidateKey(key))

	other := LandObjectKey(12, "landImage", "Plot.JPG")
	assert.NotEqual(t, key, other)
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"", "/etc/passwd", "lands/1/../2/x.pdf", "lands//1"} {
		assert.Error(t, ValidateKey(key), key)
	}
	assert.NoError(t, ValidateKey("lands/1/landDoc-abc.pdf"))
}

func TestStorageWithMemoryBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryClient("test")
	s := NewStorage(backend)

	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.Put(ctx, "lands/1/deed.pdf", strings.NewReader("deed"), 4, "application/pdf"))

	r, err := s.Get(ctx, "lands/1/deed.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "deed", string(data))
	require.NoError(t, r.Close())

	require.NoError(t, s.Delete(ctx, "lands/1/deed.pdf"))
	_, err = s.Get(ctx, "lands/1/deed.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.Error(t, s.Put(ctx, "../escape", strings.NewReader("x"), 1, ""))
	assert.Equal(t, "test", s.Bucket())
}
