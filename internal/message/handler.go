package message

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dmchat/internal/blob"
	"dmchat/internal/middleware"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type sendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// SendMessage handles POST /api/messages/{peerID}. Success means the message
// was persisted; whether anyone was live to receive the push does not change
// the response.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	peer := chi.URLParam(r, "peerID")

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.Send(r.Context(), me, peer, req.Text, req.Image)
	switch {
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, blob.ErrBadEncoding),
		errors.Is(err, blob.ErrNotImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error("send failed", "sender", me, "receiver", peer, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(m)
}

// GetConversation handles GET /api/conversation/{peerID}.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	peer := chi.URLParam(r, "peerID")

	msgs, err := h.svc.Conversation(r.Context(), me, peer)
	if err != nil {
		h.log.Error("conversation fetch failed", "user", me, "peer", peer, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeMessages(w, msgs)
}

// MarkRead handles PUT /api/messages/{peerID}/read: {peerID} is the sender
// whose messages the caller just read. Responds with the refreshed
// conversation.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	peer := chi.URLParam(r, "peerID")

	msgs, err := h.svc.MarkRead(r.Context(), peer, me)
	if err != nil {
		h.log.Error("mark read failed", "sender", peer, "reader", me, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeMessages(w, msgs)
}

func writeMessages(w http.ResponseWriter, msgs []Message) {
	if msgs == nil {
		msgs = []Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}
