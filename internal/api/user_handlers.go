package api

import (
	"net/http"
	"strings"

	"clipstream/internal/apperr"
)

// UserByPath serves /api/users/{username} and the per-user subresources
// (tweets, playlists, videos), which take a user id.
func (h *Handler) UserByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		writeError(w, apperr.NotFoundf("resource not found"))
		return
	}

	if len(segments) == 1 {
		h.ChannelProfile(w, r, segments[0])
		return
	}
	if len(segments) == 2 {
		switch segments[1] {
		case "tweets", "playlists", "videos":
			if err := checkResourceID(segments[0]); err != nil {
				writeError(w, err)
				return
			}
		}
		switch segments[1] {
		case "tweets":
			h.UserTweets(w, r, segments[0])
			return
		case "playlists":
			h.UserPlaylists(w, r, segments[0])
			return
		case "videos":
			h.UserVideos(w, r, segments[0])
			return
		}
	}
	writeError(w, apperr.NotFoundf("resource not found"))
}

// UserVideos serves GET /api/users/{id}/videos: the channel's public
// uploads, or all uploads when the caller is the owner.
func (h *Handler) UserVideos(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewer, authenticated := UserFromContext(r.Context())
	includeUnpublished := authenticated && viewer.ID == userID
	videos, total, err := h.Store.ListChannelVideos(userID, includeUnpublished, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload("videos", h.videoViews(videos), page, limit, total), "channel videos")
}
