package api

import (
	"net/http"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

// playlistView decorates a playlist with its owner join and resolved videos.
type playlistView struct {
	models.Playlist
	Owner  ownerSummary `json:"owner"`
	Videos []videoView  `json:"videos"`
}

func (h *Handler) playlistView(playlist models.Playlist) playlistView {
	videos := make([]videoView, 0, len(playlist.VideoIDs))
	for _, videoID := range playlist.VideoIDs {
		if video, ok := h.Store.GetVideo(videoID); ok {
			videos = append(videos, h.videoView(video, nil))
		}
	}
	return playlistView{
		Playlist: playlist,
		Owner:    h.ownerSummary(playlist.OwnerID),
		Videos:   videos,
	}
}

type createPlaylistRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Privacy     models.PlaylistPrivacy `json:"privacy"`
}

type updatePlaylistRequest struct {
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Privacy     *models.PlaylistPrivacy `json:"privacy"`
}

// Playlists serves the collection route: POST creates a playlist for the
// caller.
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	playlist, err := h.Store.CreatePlaylist(storage.CreatePlaylistParams{
		OwnerID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		Privacy:     req.Privacy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, h.playlistView(playlist), "playlist created")
}

// PlaylistByID serves /api/playlists/{id} and its video subresource.
func (h *Handler) PlaylistByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/playlists/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		writeError(w, apperr.NotFoundf("playlist not found"))
		return
	}
	playlistID := segments[0]
	if err := checkResourceID(playlistID); err != nil {
		writeError(w, err)
		return
	}

	if len(segments) == 3 && segments[1] == "videos" {
		if err := checkResourceID(segments[2]); err != nil {
			writeError(w, err)
			return
		}
		h.playlistVideo(w, r, playlistID, segments[2])
		return
	}
	if len(segments) > 1 {
		writeError(w, apperr.NotFoundf("resource not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getPlaylist(w, r, playlistID)
	case http.MethodPatch:
		h.updatePlaylist(w, r, playlistID)
	case http.MethodDelete:
		h.deletePlaylist(w, r, playlistID)
	default:
		writeMethodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

// getPlaylist returns one playlist. Private playlists are readable by their
// owner only; anyone else gets Forbidden. A non-owner read of a visible
// playlist counts a view.
func (h *Handler) getPlaylist(w http.ResponseWriter, r *http.Request, playlistID string) {
	playlist, ok := h.Store.GetPlaylist(playlistID)
	if !ok {
		writeError(w, apperr.NotFoundf("playlist %s not found", playlistID))
		return
	}
	viewer, authenticated := UserFromContext(r.Context())
	isOwner := authenticated && viewer.ID == playlist.OwnerID
	if playlist.Privacy == models.PlaylistPrivate && !isOwner {
		writeError(w, apperr.Forbiddenf("playlist %s is private", playlistID))
		return
	}
	if !isOwner {
		if err := h.Store.IncrementPlaylistViews(playlistID); err != nil {
			h.logger().Warn("increment playlist views failed", "playlist", playlistID, "error", err)
		} else {
			playlist.Views++
		}
	}
	writeData(w, http.StatusOK, h.playlistView(playlist), "playlist")
}

func (h *Handler) requirePlaylistOwner(w http.ResponseWriter, r *http.Request, playlistID string) (models.Playlist, bool) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.Playlist{}, false
	}
	playlist, exists := h.Store.GetPlaylist(playlistID)
	if !exists {
		writeError(w, apperr.NotFoundf("playlist %s not found", playlistID))
		return models.Playlist{}, false
	}
	if playlist.OwnerID != user.ID {
		writeError(w, apperr.Forbiddenf("you do not own this playlist"))
		return models.Playlist{}, false
	}
	return playlist, true
}

func (h *Handler) updatePlaylist(w http.ResponseWriter, r *http.Request, playlistID string) {
	if _, ok := h.requirePlaylistOwner(w, r, playlistID); !ok {
		return
	}
	var req updatePlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Title == nil && req.Description == nil && req.Privacy == nil {
		writeError(w, apperr.Validationf("nothing to update"))
		return
	}
	updated, err := h.Store.UpdatePlaylist(playlistID, storage.PlaylistUpdate{
		Title:       req.Title,
		Description: req.Description,
		Privacy:     req.Privacy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, h.playlistView(updated), "playlist updated")
}

func (h *Handler) deletePlaylist(w http.ResponseWriter, r *http.Request, playlistID string) {
	if _, ok := h.requirePlaylistOwner(w, r, playlistID); !ok {
		return
	}
	if err := h.Store.DeletePlaylist(playlistID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "playlist deleted")
}

// playlistVideo adds (POST) or removes (DELETE) one video, owner-only.
func (h *Handler) playlistVideo(w http.ResponseWriter, r *http.Request, playlistID, videoID string) {
	if _, ok := h.requirePlaylistOwner(w, r, playlistID); !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		updated, err := h.Store.AddPlaylistVideo(playlistID, videoID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, h.playlistView(updated), "video added to playlist")
	case http.MethodDelete:
		updated, err := h.Store.RemovePlaylistVideo(playlistID, videoID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, h.playlistView(updated), "video removed from playlist")
	default:
		writeMethodNotAllowed(w, "POST, DELETE")
	}
}

// UserPlaylists serves GET /api/users/{id}/playlists. Private playlists
// appear only when the caller asks about themselves.
func (h *Handler) UserPlaylists(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	viewer, authenticated := UserFromContext(r.Context())
	includePrivate := authenticated && viewer.ID == userID
	playlists, err := h.Store.ListUserPlaylists(userID, includePrivate)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]playlistView, 0, len(playlists))
	for _, playlist := range playlists {
		views = append(views, h.playlistView(playlist))
	}
	writeData(w, http.StatusOK, map[string]any{"playlists": views}, "playlists")
}
