package blob

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// Smallest payload mimetype recognizes as image/png.
var pngBytes = []byte{
	0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db)
}

func TestPutGetRoundtrip(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, base64.StdEncoding.EncodeToString(pngBytes))
	req.NoError(err)
	req.True(strings.HasPrefix(ref, "/blobs/"))

	id := strings.TrimPrefix(ref, "/blobs/")
	data, contentType, err := store.Get(ctx, id)
	req.NoError(err)
	req.Equal("image/png", contentType)
	req.Equal(pngBytes, data)
}

func TestPutAcceptsDataURI(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	ref, err := store.Put(context.Background(), payload)
	req.NoError(err)
	req.True(strings.HasPrefix(ref, "/blobs/"))
}

func TestPutRejectsNonImage(t *testing.T) {
	store := newTestStore(t)

	payload := base64.StdEncoding.EncodeToString([]byte("just some text"))
	_, err := store.Put(context.Background(), payload)
	require.ErrorIs(t, err, ErrNotImage)
}

func TestPutRejectsBadBase64(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Put(context.Background(), "not base64 at all!!!")
	require.ErrorIs(t, err, ErrBadEncoding)

	_, err = store.Put(context.Background(), "data:image/png;base64")
	require.ErrorIs(t, err, ErrBadEncoding)
}

func TestGetUnknownBlob(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRefsAreUnique(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	payload := base64.StdEncoding.EncodeToString(pngBytes)
	ref1, err := store.Put(ctx, payload)
	req.NoError(err)
	ref2, err := store.Put(ctx, payload)
	req.NoError(err)
	req.NotEqual(ref1, ref2)
}
