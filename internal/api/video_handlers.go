package api

import (
	"net/http"
	"strconv"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

// videoView decorates a video record with its owner join and like count.
type videoView struct {
	models.Video
	Owner ownerSummary `json:"owner"`
	Likes int          `json:"likes"`
	Liked *bool        `json:"liked,omitempty"`
}

func (h *Handler) videoView(video models.Video, viewer *models.User) videoView {
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}
	view := videoView{
		Video: video,
		Owner: h.ownerSummary(video.OwnerID),
		Likes: h.Store.CountLikes(target),
	}
	if viewer != nil {
		liked := h.Store.HasLiked(viewer.ID, target)
		view.Liked = &liked
	}
	return view
}

func (h *Handler) videoViews(videos []models.Video) []videoView {
	views := make([]videoView, 0, len(videos))
	for _, video := range videos {
		views = append(views, h.videoView(video, nil))
	}
	return views
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Videos serves the collection route: GET lists the published catalogue,
// POST publishes a new upload from a multipart form.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listVideos(w, r)
	case http.MethodPost:
		h.createVideo(w, r)
	default:
		writeMethodNotAllowed(w, "GET, POST")
	}
}

func (h *Handler) listVideos(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ascending := false
	switch strings.ToLower(r.URL.Query().Get("sortType")) {
	case "", "desc":
	case "asc":
		ascending = true
	default:
		writeError(w, apperr.Validationf("sortType must be asc or desc"))
		return
	}
	videos, total, err := h.Store.ListVideos(storage.ListVideosParams{
		Query:   r.URL.Query().Get("query"),
		OwnerID: r.URL.Query().Get("owner"),
		SortBy:  r.URL.Query().Get("sortBy"),
		SortAsc: ascending,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload("videos", h.videoViews(videos), page, limit, total), "videos")
}

func (h *Handler) createVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperr.Validationf("invalid multipart form").WithCause(err))
		return
	}

	videoFile, err := readFormFile(r, "videoFile")
	if err != nil {
		writeError(w, err)
		return
	}
	if videoFile == nil {
		writeError(w, apperr.Validationf("videoFile is required"))
		return
	}
	thumbnail, err := readFormFile(r, "thumbnail")
	if err != nil {
		writeError(w, err)
		return
	}

	duration := 0.0
	if raw := r.FormValue("duration"); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil || duration < 0 {
			writeError(w, apperr.Validationf("duration must be a non-negative number"))
			return
		}
	}
	published := false
	if raw := r.FormValue("published"); raw != "" {
		published, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, apperr.Validationf("published must be a boolean"))
			return
		}
	}

	videoObject, err := h.storeUpload(r, "videos", videoFile)
	if err != nil {
		writeError(w, err)
		return
	}
	thumbObject, err := h.storeUpload(r, "thumbnails", thumbnail)
	if err != nil {
		h.releaseMedia(r, videoObject.Key)
		writeError(w, err)
		return
	}

	video, err := h.Store.CreateVideo(storage.CreateVideoParams{
		OwnerID:     user.ID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		VideoFile:   videoObject,
		Thumbnail:   thumbObject,
		Duration:    duration,
		Published:   published,
	})
	if err != nil {
		h.releaseMedia(r, videoObject.Key)
		h.releaseMedia(r, thumbObject.Key)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, h.videoView(video, &user), "video published")
}

// VideoByID serves /api/videos/{id} and its subresources.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		writeError(w, apperr.NotFoundf("video not found"))
		return
	}
	videoID := segments[0]
	if err := checkResourceID(videoID); err != nil {
		writeError(w, err)
		return
	}

	if len(segments) == 2 {
		switch segments[1] {
		case "publish":
			h.togglePublish(w, r, videoID)
		case "comments":
			h.VideoComments(w, r, videoID)
		default:
			writeError(w, apperr.NotFoundf("resource not found"))
		}
		return
	}
	if len(segments) > 2 {
		writeError(w, apperr.NotFoundf("resource not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getVideo(w, r, videoID)
	case http.MethodPatch:
		h.updateVideo(w, r, videoID)
	case http.MethodDelete:
		h.deleteVideo(w, r, videoID)
	default:
		writeMethodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

// getVideo returns one video. Each fetch counts a view; authenticated
// fetches also land in the viewer's watch history. Unpublished videos are
// readable by their owner only; anyone else gets Forbidden.
func (h *Handler) getVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	video, ok := h.Store.GetVideo(videoID)
	if !ok {
		writeError(w, apperr.NotFoundf("video %s not found", videoID))
		return
	}
	viewer, authenticated := UserFromContext(r.Context())
	if !video.Published && (!authenticated || viewer.ID != video.OwnerID) {
		writeError(w, apperr.Forbiddenf("video %s is not published", videoID))
		return
	}

	video, err := h.Store.IncrementVideoViews(videoID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recorder().VideoView()
	if authenticated {
		if err := h.Store.AddWatchHistory(viewer.ID, videoID); err != nil {
			h.logger().Warn("record watch history failed", "video", videoID, "error", err)
		}
	}

	var viewerRef *models.User
	if authenticated {
		viewerRef = &viewer
	}
	writeData(w, http.StatusOK, h.videoView(video, viewerRef), "video")
}

func (h *Handler) requireVideoOwner(w http.ResponseWriter, r *http.Request, videoID string) (models.User, models.Video, bool) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.User{}, models.Video{}, false
	}
	video, ok := h.Store.GetVideo(videoID)
	if !ok {
		writeError(w, apperr.NotFoundf("video %s not found", videoID))
		return models.User{}, models.Video{}, false
	}
	if video.OwnerID != user.ID {
		writeError(w, apperr.Forbiddenf("you do not own this video"))
		return models.User{}, models.Video{}, false
	}
	return user, video, true
}

func (h *Handler) updateVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	user, video, ok := h.requireVideoOwner(w, r, videoID)
	if !ok {
		return
	}

	update := storage.VideoUpdate{}
	previousThumbKey := ""
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, apperr.Validationf("invalid multipart form").WithCause(err))
			return
		}
		if title := r.FormValue("title"); title != "" {
			update.Title = &title
		}
		if description := r.FormValue("description"); description != "" {
			update.Description = &description
		}
		thumbnail, err := readFormFile(r, "thumbnail")
		if err != nil {
			writeError(w, err)
			return
		}
		if thumbnail != nil {
			object, err := h.storeUpload(r, "thumbnails", thumbnail)
			if err != nil {
				writeError(w, err)
				return
			}
			update.Thumbnail = &object
			previousThumbKey = video.Thumbnail.Key
		}
	} else {
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		update.Title = req.Title
		update.Description = req.Description
	}

	if update.Title == nil && update.Description == nil && update.Thumbnail == nil {
		writeError(w, apperr.Validationf("nothing to update"))
		return
	}

	updated, err := h.Store.UpdateVideo(videoID, update)
	if err != nil {
		if update.Thumbnail != nil {
			h.releaseMedia(r, update.Thumbnail.Key)
		}
		writeError(w, err)
		return
	}
	if previousThumbKey != "" {
		h.releaseMedia(r, previousThumbKey)
	}
	writeData(w, http.StatusOK, h.videoView(updated, &user), "video updated")
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	_, _, ok := h.requireVideoOwner(w, r, videoID)
	if !ok {
		return
	}
	deleted, err := h.Store.DeleteVideo(videoID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.releaseMedia(r, deleted.VideoFile.Key)
	h.releaseMedia(r, deleted.Thumbnail.Key)
	writeData(w, http.StatusOK, nil, "video deleted")
}

func (h *Handler) togglePublish(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}
	user, video, ok := h.requireVideoOwner(w, r, videoID)
	if !ok {
		return
	}
	updated, err := h.Store.SetVideoPublished(videoID, !video.Published)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, h.videoView(updated, &user), "publish state toggled")
}
