package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTouchAndLastSeen(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStore()

	seen, err := store.LastSeen(ctx, "alice")
	req.NoError(err)
	req.True(seen.IsZero(), "never-seen identities report a zero time")

	before := time.Now().UTC()
	req.NoError(store.Touch(ctx, "alice"))

	seen, err = store.LastSeen(ctx, "alice")
	req.NoError(err)
	req.False(seen.IsZero())
	req.False(seen.Before(before))
}
