package message

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("message not found")

// Store is the durable, ordered record of messages between user pairs.
//
// Append assigns id and creation order and either fully persists the message
// or fails without side effects. Conversation is a point-in-time snapshot in
// creation order, not a live stream. MarkRead bulk-flips every unread message
// from senderID to receiverID and reports how many it touched; it is a single
// logical batch, never half-applied.
type Store interface {
	Append(ctx context.Context, m *Message) error
	Conversation(ctx context.Context, userA, userB string) ([]Message, error)
	MarkRead(ctx context.Context, senderID, receiverID string) (int64, error)
	GetByID(ctx context.Context, id string) (*Message, error)
}
