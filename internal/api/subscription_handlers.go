package api

import (
	"net/http"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

type toggleSubscriptionResponse struct {
	ChannelID   string `json:"channelId"`
	Subscribed  bool   `json:"subscribed"`
	Subscribers int    `json:"subscribers"`
}

// SubscriptionByChannel serves /api/subscriptions/{channelId}: POST toggles
// the caller's subscription, GET lists the channel's subscribers.
func (h *Handler) SubscriptionByChannel(w http.ResponseWriter, r *http.Request) {
	channelID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/subscriptions/"), "/")
	if channelID == "" || strings.Contains(channelID, "/") {
		writeError(w, apperr.NotFoundf("resource not found"))
		return
	}
	if err := checkResourceID(channelID); err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.toggleSubscription(w, r, channelID)
	case http.MethodGet:
		h.listSubscribers(w, r, channelID)
	default:
		writeMethodNotAllowed(w, "GET, POST")
	}
}

func (h *Handler) toggleSubscription(w http.ResponseWriter, r *http.Request, channelID string) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	subscribed, err := h.Store.ToggleSubscription(user.ID, channelID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recorder().ToggleEvent("subscription")
	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	writeData(w, http.StatusOK, toggleSubscriptionResponse{
		ChannelID:   channelID,
		Subscribed:  subscribed,
		Subscribers: h.Store.CountSubscribers(channelID),
	}, message)
}

func (h *Handler) listSubscribers(w http.ResponseWriter, r *http.Request, channelID string) {
	subscribers, err := h.Store.ListChannelSubscribers(channelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"subscribers": summaries(subscribers),
	}, "subscribers")
}

// SubscribedChannels serves GET /api/me/subscriptions: the channels the
// caller follows.
func (h *Handler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	channels, err := h.Store.ListSubscribedChannels(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"channels": summaries(channels),
	}, "subscribed channels")
}

func summaries(users []models.User) []ownerSummary {
	result := make([]ownerSummary, 0, len(users))
	for _, user := range users {
		result = append(result, ownerSummary{
			ID:        user.ID,
			Username:  user.Username,
			FullName:  user.FullName,
			AvatarURL: user.AvatarURL,
		})
	}
	return result
}
