package message_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"dmchat/internal/message"
)

func TestMemoryStoreConversationOrderAndIsolation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := message.NewMemoryStore()

	// Interleave two conversations; each must come back complete, in
	// creation order, unaffected by the other.
	for i := 0; i < 5; i++ {
		req.NoError(store.Append(ctx, &message.Message{
			SenderID: "a", ReceiverID: "b", Text: fmt.Sprintf("ab-%d", i),
		}))
		req.NoError(store.Append(ctx, &message.Message{
			SenderID: "c", ReceiverID: "d", Text: fmt.Sprintf("cd-%d", i),
		}))
	}

	ab, err := store.Conversation(ctx, "a", "b")
	req.NoError(err)
	req.Len(ab, 5)
	for i, m := range ab {
		req.Equal(fmt.Sprintf("ab-%d", i), m.Text)
	}

	// Pair order does not matter for the lookup.
	ba, err := store.Conversation(ctx, "b", "a")
	req.NoError(err)
	req.Equal(ab, ba)
}

func TestMemoryStoreConversationIncludesBothDirections(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := message.NewMemoryStore()

	req.NoError(store.Append(ctx, &message.Message{SenderID: "a", ReceiverID: "b", Text: "ping"}))
	req.NoError(store.Append(ctx, &message.Message{SenderID: "b", ReceiverID: "a", Text: "pong"}))

	msgs, err := store.Conversation(ctx, "a", "b")
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal("ping", msgs[0].Text)
	req.Equal("pong", msgs[1].Text)
}

func TestMemoryStoreMarkRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := message.NewMemoryStore()

	for i := 0; i < 3; i++ {
		req.NoError(store.Append(ctx, &message.Message{SenderID: "a", ReceiverID: "b"}))
	}
	req.NoError(store.Append(ctx, &message.Message{SenderID: "b", ReceiverID: "a"}))

	n, err := store.MarkRead(ctx, "a", "b")
	req.NoError(err)
	req.EqualValues(3, n)

	// Idempotent: nothing left to flip.
	n, err = store.MarkRead(ctx, "a", "b")
	req.NoError(err)
	req.Zero(n)

	msgs, err := store.Conversation(ctx, "a", "b")
	req.NoError(err)
	for _, m := range msgs {
		req.Equal(m.SenderID == "a", m.Read)
	}
}

func TestMemoryStoreGetByID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := message.NewMemoryStore()

	m := &message.Message{SenderID: "a", ReceiverID: "b", Text: "hi"}
	req.NoError(store.Append(ctx, m))
	req.NotEmpty(m.ID)

	got, err := store.GetByID(ctx, m.ID)
	req.NoError(err)
	req.Equal("hi", got.Text)

	_, err = store.GetByID(ctx, "missing")
	req.ErrorIs(err, message.ErrNotFound)
}
