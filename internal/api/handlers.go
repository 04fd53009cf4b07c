// Package api implements the HTTP handlers for the clipstream REST surface.
// Every response uses the same envelope shape; errors are classified by the
// apperr taxonomy and never leak internal details.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"clipstream/internal/auth"
	"clipstream/internal/models"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/storage"
)

type Handler struct {
	Store    storage.Repository
	Sessions *auth.SessionManager
	Media    storage.MediaStore
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

func NewHandler(store storage.Repository, sessions *auth.SessionManager, media storage.MediaStore) *Handler {
	if media == nil {
		media = storage.NewMediaStore(storage.MediaConfig{})
	}
	return &Handler{
		Store:    store,
		Sessions: sessions,
		Media:    media,
		Metrics:  metrics.Default(),
		Logger:   slog.Default(),
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) recorder() *metrics.Recorder {
	if h.Metrics != nil {
		return h.Metrics
	}
	return metrics.Default()
}

// Health reports liveness plus datastore reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.Store.Ping(ctx); err != nil {
		h.logger().Error("health check failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeData(w, code, map[string]string{"status": status}, "health check")
}

// userProfile is the caller-safe projection of an account.
type userProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CoverURL  string    `json:"coverUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserProfile(user models.User) userProfile {
	return userProfile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
		CoverURL:  user.CoverURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ownerSummary is the profile join embedded in owned resources.
type ownerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func (h *Handler) ownerSummary(ownerID string) ownerSummary {
	if user, ok := h.Store.GetUser(ownerID); ok {
		return ownerSummary{
			ID:        user.ID,
			Username:  user.Username,
			FullName:  user.FullName,
			AvatarURL: user.AvatarURL,
		}
	}
	return ownerSummary{ID: ownerID}
}
