package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore is the production Store, backed by the messages table that
// internal/db migrates. Conversation order comes from the seq sequence, not
// from timestamps.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, text, image, read)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.Image).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	m.Read = false
	return nil
}

func (s *PostgresStore) Conversation(ctx context.Context, userA, userB string) ([]Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID,
			&m.Text, &m.Image, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	query := `
		UPDATE messages SET read = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND read = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, read, created_at
		FROM messages WHERE id = $1
	`
	m := &Message{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.SenderID,
		&m.ReceiverID, &m.Text, &m.Image, &m.Read, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}
