package user

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"dmchat/internal/blob"
	"dmchat/internal/middleware"
)

// OnlineChecker reports whether an identity has a live connection; the
// registry satisfies it.
type OnlineChecker interface {
	Online(identity string) bool
}

// LastSeenSource supplies last-seen stamps for offline roster rows.
type LastSeenSource interface {
	LastSeen(ctx context.Context, identity string) (time.Time, error)
}

type Handler struct {
	svc      *Service
	online   OnlineChecker
	lastSeen LastSeenSource
	log      *slog.Logger
}

func NewHandler(svc *Service, online OnlineChecker, lastSeen LastSeenSource, log *slog.Logger) *Handler {
	return &Handler{svc: svc, online: online, lastSeen: lastSeen, log: log}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.Signup(r.Context(), &req)
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		http.Error(w, "input is invalid", http.StatusBadRequest)
		return
	case errors.Is(err, ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error("signup failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.Login(r.Context(), &req)
	if errors.Is(err, ErrInvalidCredentials) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Error("signin failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(res)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.Token(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.log.Error("logout failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.svc.Me(r.Context(), id)
	if err != nil {
		h.log.Error("check failed", "user", id, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ProfilePic string `json:"profilePic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ProfilePic == "" {
		http.Error(w, "profile pic is required", http.StatusBadRequest)
		return
	}

	u, err := h.svc.UpdateProfilePic(r.Context(), id, req.ProfilePic)
	switch {
	case errors.Is(err, blob.ErrBadEncoding), errors.Is(err, blob.ErrNotImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error("profile update failed", "user", id, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(u)
}

// Roster handles GET /api/users: everyone except the caller, with live
// status attached.
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("roster fetch failed", "user", me, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	others := lo.Filter(users, func(u User, _ int) bool { return u.ID != me })
	roster := lo.Map(others, func(u User, _ int) RosterEntry {
		entry := RosterEntry{
			ID:         u.ID,
			Email:      u.Email,
			FullName:   u.FullName,
			ProfilePic: u.ProfilePic,
			Online:     h.online.Online(u.ID),
		}
		if seen, err := h.lastSeen.LastSeen(r.Context(), u.ID); err == nil && !seen.IsZero() {
			entry.LastSeen = &seen
		}
		return entry
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roster)
}
