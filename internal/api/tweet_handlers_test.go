package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTweetLifecycle(t *testing.T) {
	handler, store := newTestHandler(t)
	author := createTestUser(t, store, "author")
	intruder := createTestUser(t, store, "intruder")

	rec := httptest.NewRecorder()
	handler.Tweets(rec, authedRequest(author, http.MethodPost, "/api/tweets", jsonBody(t, map[string]string{
		"content": "first post",
	})))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 tweet, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	decodeData(t, decodeEnvelope(t, rec), &created)
	if created.Content != "first post" {
		t.Fatalf("unexpected tweet content %q", created.Content)
	}

	rec = httptest.NewRecorder()
	handler.TweetByID(rec, authedRequest(intruder, http.MethodPatch, "/api/tweets/"+created.ID, jsonBody(t, map[string]string{
		"content": "hijacked",
	})))
	expectFailure(t, rec, http.StatusForbidden)

	rec = httptest.NewRecorder()
	handler.TweetByID(rec, authedRequest(author, http.MethodPatch, "/api/tweets/"+created.ID, jsonBody(t, map[string]string{
		"content": "edited post",
	})))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 edit, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.TweetByID(rec, authedRequest(author, http.MethodDelete, "/api/tweets/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 delete, got %d", rec.Code)
	}
	if _, ok := store.GetTweet(created.ID); ok {
		t.Fatalf("expected tweet to be gone")
	}
}

func TestTweetContentLimit(t *testing.T) {
	handler, store := newTestHandler(t)
	author := createTestUser(t, store, "author")

	rec := httptest.NewRecorder()
	handler.Tweets(rec, authedRequest(author, http.MethodPost, "/api/tweets", jsonBody(t, map[string]string{
		"content": strings.Repeat("x", 281),
	})))
	expectFailure(t, rec, http.StatusBadRequest)
}

func TestUserTweetsList(t *testing.T) {
	handler, store := newTestHandler(t)
	author := createTestUser(t, store, "author")

	if _, err := store.CreateTweet(author.ID, "older"); err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	if _, err := store.CreateTweet(author.ID, "newer"); err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.UserByPath(rec, httptest.NewRequest(http.MethodGet, "/api/users/"+author.ID+"/tweets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Tweets []struct {
			Content string `json:"content"`
		} `json:"tweets"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	decodeData(t, decodeEnvelope(t, rec), &payload)
	if payload.Pagination.Total != 2 || len(payload.Tweets) != 2 {
		t.Fatalf("expected two tweets, got %+v", payload)
	}
}
