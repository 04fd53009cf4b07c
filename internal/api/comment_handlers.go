package api

import (
	"net/http"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// commentView decorates a comment with its owner join and like count.
type commentView struct {
	models.Comment
	Owner ownerSummary `json:"owner"`
	Likes int          `json:"likes"`
}

func (h *Handler) commentView(comment models.Comment) commentView {
	return commentView{
		Comment: comment,
		Owner:   h.ownerSummary(comment.OwnerID),
		Likes:   h.Store.CountLikes(models.LikeTarget{Kind: models.LikeTargetComment, ID: comment.ID}),
	}
}

type commentRequest struct {
	Content string `json:"content"`
}

// VideoComments serves /api/videos/{id}/comments: GET lists, POST creates.
func (h *Handler) VideoComments(w http.ResponseWriter, r *http.Request, videoID string) {
	switch r.Method {
	case http.MethodGet:
		h.listComments(w, r, videoID)
	case http.MethodPost:
		h.createComment(w, r, videoID)
	default:
		writeMethodNotAllowed(w, "GET, POST")
	}
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request, videoID string) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	comments, total, err := h.Store.ListVideoComments(videoID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]commentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, h.commentView(comment))
	}
	writeData(w, http.StatusOK, listPayload("comments", views, page, limit, total), "comments")
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request, videoID string) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	comment, err := h.Store.CreateComment(videoID, user.ID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, h.commentView(comment), "comment added")
}

// CommentByID serves /api/comments/{id}: PATCH edits, DELETE removes. Both
// are owner-only.
func (h *Handler) CommentByID(w http.ResponseWriter, r *http.Request) {
	commentID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/comments/"), "/")
	if commentID == "" || strings.Contains(commentID, "/") {
		writeError(w, apperr.NotFoundf("resource not found"))
		return
	}
	if err := checkResourceID(commentID); err != nil {
		writeError(w, err)
		return
	}

	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	comment, exists := h.Store.GetComment(commentID)
	if !exists {
		writeError(w, apperr.NotFoundf("comment %s not found", commentID))
		return
	}
	if comment.OwnerID != user.ID {
		writeError(w, apperr.Forbiddenf("you do not own this comment"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.Store.UpdateComment(commentID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, h.commentView(updated), "comment updated")
	case http.MethodDelete:
		if err := h.Store.DeleteComment(commentID); err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, nil, "comment deleted")
	default:
		writeMethodNotAllowed(w, "PATCH, DELETE")
	}
}
