package message_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"dmchat/internal/message"
	"dmchat/internal/relay"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) TrySend(payload []byte) bool {
	f.mu.Lock()
	f.frames = append(f.frames, payload)
	f.mu.Unlock()
	return true
}

func (f *fakeConn) deliveries(t *testing.T) []relay.Delivery {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]relay.Delivery, 0, len(f.frames))
	for _, raw := range f.frames {
		var d relay.Delivery
		require.NoError(t, json.Unmarshal(raw, &d))
		out = append(out, d)
	}
	return out
}

type fakeBlobs struct {
	ref string
	err error
}

func (f fakeBlobs) Put(context.Context, string) (string, error) {
	return f.ref, f.err
}

type failingStore struct {
	message.Store
}

func (failingStore) Append(context.Context, *message.Message) error {
	return errors.New("store unreachable")
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc := message.NewService(message.NewMemoryStore(), relay.NewRegistry(), nil, discard())

	_, err := svc.Send(context.Background(), "a", "b", "", "")
	require.ErrorIs(t, err, message.ErrEmptyMessage)
}

func TestSendPersistsAndPushesToBothParties(t *testing.T) {
	req := require.New(t)

	store := message.NewMemoryStore()
	registry := relay.NewRegistry()
	sender := &fakeConn{}
	receiver := &fakeConn{}
	registry.Announce("alice", sender)
	registry.Announce("bob", receiver)

	svc := message.NewService(store, registry, nil, discard())
	m, err := svc.Send(context.Background(), "alice", "bob", "hi", "")
	req.NoError(err)
	req.NotEmpty(m.ID)
	req.False(m.Read)
	req.False(m.CreatedAt.IsZero())

	// Durable first: the store has it.
	msgs, err := store.Conversation(context.Background(), "alice", "bob")
	req.NoError(err)
	req.Len(msgs, 1)

	// Then the best-effort pushes, to both parties.
	got := receiver.deliveries(t)
	req.Len(got, 1)
	req.Equal("alice", got[0].Sender)
	req.Equal("hi", got[0].Content)
	req.Equal(m.CreatedAt, got[0].Timestamp)
	req.Len(sender.deliveries(t), 1)
}

func TestSendSucceedsWithRecipientOffline(t *testing.T) {
	req := require.New(t)

	store := message.NewMemoryStore()
	svc := message.NewService(store, relay.NewRegistry(), nil, discard())

	m, err := svc.Send(context.Background(), "alice", "bob", "hello?", "")
	req.NoError(err)
	req.NotEmpty(m.ID)

	msgs, err := store.Conversation(context.Background(), "alice", "bob")
	req.NoError(err)
	req.Len(msgs, 1)
	req.False(msgs[0].Read)
}

func TestSendStoreFailureMeansNoPush(t *testing.T) {
	req := require.New(t)

	registry := relay.NewRegistry()
	receiver := &fakeConn{}
	registry.Announce("bob", receiver)

	svc := message.NewService(failingStore{}, registry, nil, discard())
	_, err := svc.Send(context.Background(), "alice", "bob", "hi", "")
	req.Error(err)
	req.Empty(receiver.deliveries(t))
}

func TestSendStoresImageAndPushesRef(t *testing.T) {
	req := require.New(t)

	store := message.NewMemoryStore()
	registry := relay.NewRegistry()
	receiver := &fakeConn{}
	registry.Announce("bob", receiver)

	svc := message.NewService(store, registry, fakeBlobs{ref: "/blobs/abc"}, discard())
	m, err := svc.Send(context.Background(), "alice", "bob", "", "aGVsbG8=")
	req.NoError(err)
	req.Equal("/blobs/abc", m.Image)
	req.Empty(m.Text)

	got := receiver.deliveries(t)
	req.Len(got, 1)
	req.Equal("/blobs/abc", got[0].Image)
	// No text, so content falls back to the image ref.
	req.Equal("/blobs/abc", got[0].Content)
}

func TestSendBlobFailureMeansNoAppend(t *testing.T) {
	req := require.New(t)

	store := message.NewMemoryStore()
	svc := message.NewService(store, relay.NewRegistry(), fakeBlobs{err: errors.New("disk full")}, discard())

	_, err := svc.Send(context.Background(), "alice", "bob", "", "aGVsbG8=")
	req.Error(err)

	msgs, err := store.Conversation(context.Background(), "alice", "bob")
	req.NoError(err)
	req.Empty(msgs)
}

func TestMarkReadFlipsOnlyOneDirection(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	store := message.NewMemoryStore()
	svc := message.NewService(store, relay.NewRegistry(), nil, discard())

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, "alice", "bob", "from alice", "")
		req.NoError(err)
	}
	_, err := svc.Send(ctx, "bob", "alice", "from bob", "")
	req.NoError(err)

	// bob reads alice's messages.
	msgs, err := svc.MarkRead(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(msgs, 4)

	for _, m := range msgs {
		if m.SenderID == "alice" {
			req.True(m.Read)
		} else {
			req.False(m.Read, "bob's own messages must stay unread")
		}
	}
}

func TestMessageParties(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	svc := message.NewService(message.NewMemoryStore(), relay.NewRegistry(), nil, discard())
	m, err := svc.Send(ctx, "alice", "bob", "hi", "")
	req.NoError(err)

	sender, receiver, err := svc.MessageParties(ctx, m.ID)
	req.NoError(err)
	req.Equal("alice", sender)
	req.Equal("bob", receiver)

	_, _, err = svc.MessageParties(ctx, "no-such-id")
	req.ErrorIs(err, message.ErrNotFound)
}
