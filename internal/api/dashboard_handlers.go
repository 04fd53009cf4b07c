package api

import "net/http"

// DashboardStats serves GET /api/dashboard/stats: aggregate figures for the
// caller's own channel.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	stats, err := h.Store.ChannelStats(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats, "channel stats")
}

// DashboardVideos serves GET /api/dashboard/videos: every upload of the
// caller, drafts included.
func (h *Handler) DashboardVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	videos, total, err := h.Store.ListChannelVideos(user.ID, true, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload("videos", h.videoViews(videos), page, limit, total), "channel videos")
}
