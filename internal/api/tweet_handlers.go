package api

import (
	"net/http"
	"strings"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// tweetView decorates a tweet with its owner join, like count, and the
// caller's own like state when the caller is known.
type tweetView struct {
	models.Tweet
	Owner ownerSummary `json:"owner"`
	Likes int          `json:"likes"`
	Liked *bool        `json:"liked,omitempty"`
}

func (h *Handler) tweetView(tweet models.Tweet, viewer *models.User) tweetView {
	target := models.LikeTarget{Kind: models.LikeTargetTweet, ID: tweet.ID}
	view := tweetView{
		Tweet: tweet,
		Owner: h.ownerSummary(tweet.OwnerID),
		Likes: h.Store.CountLikes(target),
	}
	if viewer != nil {
		liked := h.Store.HasLiked(viewer.ID, target)
		view.Liked = &liked
	}
	return view
}

type tweetRequest struct {
	Content string `json:"content"`
}

// Tweets serves the collection route: POST creates a tweet for the caller.
func (h *Handler) Tweets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	tweet, err := h.Store.CreateTweet(user.ID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, h.tweetView(tweet, &user), "tweet posted")
}

// TweetByID serves /api/tweets/{id}: PATCH edits, DELETE removes. Both are
// owner-only.
func (h *Handler) TweetByID(w http.ResponseWriter, r *http.Request) {
	tweetID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tweets/"), "/")
	if tweetID == "" || strings.Contains(tweetID, "/") {
		writeError(w, apperr.NotFoundf("resource not found"))
		return
	}
	if err := checkResourceID(tweetID); err != nil {
		writeError(w, err)
		return
	}

	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	tweet, exists := h.Store.GetTweet(tweetID)
	if !exists {
		writeError(w, apperr.NotFoundf("tweet %s not found", tweetID))
		return
	}
	if tweet.OwnerID != user.ID {
		writeError(w, apperr.Forbiddenf("you do not own this tweet"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req tweetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.Store.UpdateTweet(tweetID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, h.tweetView(updated, &user), "tweet updated")
	case http.MethodDelete:
		if err := h.Store.DeleteTweet(tweetID); err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, nil, "tweet deleted")
	default:
		writeMethodNotAllowed(w, "PATCH, DELETE")
	}
}

// UserTweets serves GET /api/users/{id}/tweets.
func (h *Handler) UserTweets(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tweets, total, err := h.Store.ListUserTweets(userID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	var viewerRef *models.User
	if viewer, ok := UserFromContext(r.Context()); ok {
		viewerRef = &viewer
	}
	views := make([]tweetView, 0, len(tweets))
	for _, tweet := range tweets {
		views = append(views, h.tweetView(tweet, viewerRef))
	}
	writeData(w, http.StatusOK, listPayload("tweets", views, page, limit, total), "tweets")
}
