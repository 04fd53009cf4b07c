package api

import (
	"net/http"

	"clipstream/internal/models"
)

type toggleLikeRequest struct {
	Target models.LikeTarget `json:"target"`
}

type toggleLikeResponse struct {
	Target models.LikeTarget `json:"target"`
	Liked  bool              `json:"liked"`
	Likes  int               `json:"likes"`
}

// ToggleLike serves POST /api/likes/toggle. The body names exactly one
// target (video, comment, or tweet); the response reports the resulting
// state so clients need no follow-up read.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req toggleLikeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := checkResourceID(req.Target.ID); err != nil {
		writeError(w, err)
		return
	}
	liked, err := h.Store.ToggleLike(user.ID, req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recorder().ToggleEvent("like")
	message := "like removed"
	if liked {
		message = "like added"
	}
	writeData(w, http.StatusOK, toggleLikeResponse{
		Target: req.Target,
		Liked:  liked,
		Likes:  h.Store.CountLikes(req.Target),
	}, message)
}
