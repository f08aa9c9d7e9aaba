package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dmchat/internal/relay"
)

// ErrEmptyMessage means the caller sent neither text nor an image.
var ErrEmptyMessage = errors.New("message needs text or an image")

// BlobStore turns a base64/data-URI image payload into a stable serving ref.
type BlobStore interface {
	Put(ctx context.Context, payload string) (string, error)
}

// Service is the delivery coordinator: the only component that touches both
// the durable store and the live registry. Durability always comes first;
// live push is a best-effort accelerant with an at-most-once, no-retry
// guarantee and is never part of the success contract.
type Service struct {
	store    Store
	registry *relay.Registry
	blobs    BlobStore
	log      *slog.Logger
}

func NewService(store Store, registry *relay.Registry, blobs BlobStore, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		registry: registry,
		blobs:    blobs,
		log:      log,
	}
}

// Send validates, persists, then best-effort pushes the message to both
// parties. The returned message is the authoritative confirmation.
func (s *Service) Send(ctx context.Context, senderID, receiverID, text, image string) (*Message, error) {
	if text == "" && image == "" {
		return nil, ErrEmptyMessage
	}

	var imageRef string
	if image != "" {
		var err error
		imageRef, err = s.blobs.Put(ctx, image)
		if err != nil {
			return nil, err
		}
	}

	m := &Message{SenderID: senderID, ReceiverID: receiverID, Text: text, Image: imageRef}
	if err := s.store.Append(ctx, m); err != nil {
		// No push happens for an unpersisted message.
		return nil, fmt.Errorf("persist message: %w", err)
	}
	messagesPersisted.Inc()

	content := m.Text
	if content == "" {
		content = m.Image
	}
	delivery := relay.Delivery{
		Sender:    senderID,
		Content:   content,
		Image:     m.Image,
		Timestamp: m.CreatedAt,
	}
	relay.Push(s.registry, receiverID, delivery)
	relay.Push(s.registry, senderID, delivery)

	return m, nil
}

// Conversation is a point-in-time snapshot of the messages between two users.
func (s *Service) Conversation(ctx context.Context, userA, userB string) ([]Message, error) {
	return s.store.Conversation(ctx, userA, userB)
}

// MarkRead flips every unread message from senderID to readerID and returns
// the refreshed conversation.
func (s *Service) MarkRead(ctx context.Context, senderID, readerID string) ([]Message, error) {
	n, err := s.store.MarkRead(ctx, senderID, readerID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if n > 0 {
		s.log.Debug("messages marked read", "sender", senderID, "reader", readerID, "count", n)
	}
	return s.store.Conversation(ctx, senderID, readerID)
}

// MessageParties resolves a message to its sender and receiver; the relay
// uses it to route read receipts.
func (s *Service) MessageParties(ctx context.Context, id string) (string, string, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return m.SenderID, m.ReceiverID, nil
}
