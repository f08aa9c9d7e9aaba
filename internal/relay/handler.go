package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"dmchat/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (dev mode)
	},
}

// ReceiptResolver resolves a message id to its sender/receiver pair so a read
// receipt can be routed back to the original sender.
type ReceiptResolver interface {
	MessageParties(ctx context.Context, messageID string) (senderID, receiverID string, err error)
}

// PresenceRecorder stamps an identity as seen; it feeds the roster's
// last-seen field.
type PresenceRecorder interface {
	Touch(ctx context.Context, identity string) error
}

// Handler owns the live channel: it upgrades requests, announces connections,
// and routes inbound frames to the right live connections.
type Handler struct {
	registry *Registry
	receipts ReceiptResolver
	presence PresenceRecorder
	log      *slog.Logger
}

func NewHandler(registry *Registry, receipts ReceiptResolver, presence PresenceRecorder, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		receipts: receipts,
		presence: presence,
		log:      log,
	}
}

// ServeWs upgrades the request and binds the connection to the authenticated
// identity. The session decides who this connection is; client payloads never
// do.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user", identity, "err", err)
		return
	}

	client := newClient(identity, conn, h.log)
	h.registry.Announce(identity, client)
	liveConnections.Inc()
	h.touch(identity)
	h.log.Info("connection announced", "user", identity)

	go client.writePump()
	go client.readPump(h)
}

// handleFrame parses and routes one inbound frame. Errors are per-frame: a
// malformed frame is logged and dropped, the connection stays open.
func (h *Handler) handleFrame(c *Client, data []byte) {
	frame, err := ParseFrame(data)
	if err != nil {
		framesDropped.Inc()
		h.log.Warn("dropping malformed frame", "user", c.identity, "err", err)
		return
	}
	framesTotal.WithLabelValues(frame.Kind).Inc()

	switch frame.Kind {
	case KindConnect:
		// Identity was bound at upgrade time, so connect is only an
		// idempotent re-announce. A frame claiming someone else is dropped.
		if frame.Sender != c.identity {
			h.log.Warn("connect frame claims foreign identity",
				"user", c.identity, "claimed", frame.Sender)
			return
		}
		h.registry.Announce(c.identity, c)

	case KindChat:
		h.relayChat(c, frame)

	case KindTyping:
		Push(h.registry, frame.Recipient, Typing{Kind: KindTyping, Sender: c.identity})

	case KindRead:
		h.relayRead(c, frame)
	}
}

// relayChat fans a chat frame out to the recipient and echoes it back to the
// sender's connections. The message itself was already persisted by the write
// path; a missed push here is not an error.
func (h *Handler) relayChat(c *Client, f Frame) {
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	content := f.Content
	if content == "" {
		content = f.Image
	}
	delivery := Delivery{Sender: c.identity, Content: content, Image: f.Image, Timestamp: ts}

	Push(h.registry, f.Recipient, delivery)

	// Echo to the sender's bound connection and, when a newer tab has
	// displaced this one in the registry, to this connection as well, so
	// every open tab of the sender stays in sync.
	payload, err := json.Marshal(delivery)
	if err != nil {
		return
	}
	bound, ok := h.registry.Lookup(c.identity)
	if ok {
		if !bound.TrySend(payload) {
			pushesDropped.Inc()
		}
	}
	if !ok || bound != Pusher(c) {
		if !c.TrySend(payload) {
			pushesDropped.Inc()
		}
	}
}

// relayRead routes a read receipt to the message's original sender. The
// receipt is dropped unless the reader really is that message's receiver.
func (h *Handler) relayRead(c *Client, f Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	senderID, receiverID, err := h.receipts.MessageParties(ctx, f.MessageID)
	if err != nil {
		h.log.Warn("read receipt for unknown message",
			"user", c.identity, "message", f.MessageID, "err", err)
		return
	}
	if receiverID != c.identity {
		h.log.Warn("read receipt from non-receiver dropped",
			"user", c.identity, "message", f.MessageID)
		return
	}
	Push(h.registry, senderID, ReadNotice{Kind: KindRead, MessageID: f.MessageID})
}

// disconnect runs exactly once per connection, from the read pump's defer.
func (h *Handler) disconnect(c *Client) {
	h.registry.Remove(c.identity, c)
	close(c.done)
	liveConnections.Dec()
	h.touch(c.identity)
	h.log.Info("connection closed", "user", c.identity)
}

func (h *Handler) touch(identity string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.Touch(ctx, identity); err != nil {
		h.log.Warn("presence touch failed", "user", identity, "err", err)
	}
}
