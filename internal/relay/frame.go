package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Frame kinds accepted on the live channel.
const (
	KindConnect = "connect"
	KindChat    = "chat"
	KindTyping  = "typing"
	KindRead    = "read"
)

var ErrUnknownKind = errors.New("unknown frame kind")

// Frame is one inbound live-channel event. Kind decides which of the other
// fields are required.
type Frame struct {
	Kind      string    `json:"kind"`
	Sender    string    `json:"sender,omitempty"`
	Recipient string    `json:"recipientId,omitempty"`
	Content   string    `json:"content,omitempty"`
	Image     string    `json:"image,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ParseFrame decodes and validates a single inbound frame. A bad frame is
// dropped by the caller; it never justifies closing the connection.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	switch f.Kind {
	case KindConnect:
		if f.Sender == "" {
			return Frame{}, errors.New("connect frame missing sender")
		}
	case KindChat:
		if f.Recipient == "" {
			return Frame{}, errors.New("chat frame missing recipientId")
		}
		if f.Content == "" && f.Image == "" {
			return Frame{}, errors.New("chat frame has neither content nor image")
		}
	case KindTyping:
		if f.Recipient == "" {
			return Frame{}, errors.New("typing frame missing recipientId")
		}
	case KindRead:
		if f.MessageID == "" {
			return Frame{}, errors.New("read frame missing messageId")
		}
	default:
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
	}
	return f, nil
}

// Delivery is pushed to both parties when a chat message goes out. The shape
// is what the web client renders: content falls back to the image URL when
// there is no text.
type Delivery struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Typing tells the recipient that Sender is typing.
type Typing struct {
	Kind   string `json:"kind"`
	Sender string `json:"sender"`
}

// ReadNotice tells the original sender that one of their messages was read.
type ReadNotice struct {
	Kind      string `json:"kind"`
	MessageID string `json:"messageId"`
}
