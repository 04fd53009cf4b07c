package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clipstream/internal/models"
)

func TestToggleLikeFlipsState(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "creator")
	fan := createTestUser(t, store, "fan")
	video := createTestVideo(t, store, owner.ID, "clip", true)

	body := map[string]any{
		"target": map[string]string{"kind": "video", "id": video.ID},
	}

	rec := httptest.NewRecorder()
	handler.ToggleLike(rec, authedRequest(fan, http.MethodPost, "/api/likes/toggle", jsonBody(t, body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 toggle, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var result struct {
		Liked bool `json:"liked"`
		Likes int  `json:"likes"`
	}
	env := decodeEnvelope(t, rec)
	decodeData(t, env, &result)
	if !result.Liked || result.Likes != 1 {
		t.Fatalf("expected liked with count 1, got %+v", result)
	}
	if env.Message != "like added" {
		t.Fatalf("unexpected message %q", env.Message)
	}

	rec = httptest.NewRecorder()
	handler.ToggleLike(rec, authedRequest(fan, http.MethodPost, "/api/likes/toggle", jsonBody(t, body)))
	env = decodeEnvelope(t, rec)
	decodeData(t, env, &result)
	if result.Liked || result.Likes != 0 {
		t.Fatalf("expected unlike with count 0, got %+v", result)
	}
	if env.Message != "like removed" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestToggleLikeValidatesTarget(t *testing.T) {
	handler, store := newTestHandler(t)
	fan := createTestUser(t, store, "fan")

	wellFormed := strings.Repeat("0", 32)

	rec := httptest.NewRecorder()
	handler.ToggleLike(rec, authedRequest(fan, http.MethodPost, "/api/likes/toggle", jsonBody(t, map[string]any{
		"target": map[string]string{"kind": "playlist", "id": wellFormed},
	})))
	expectFailure(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	handler.ToggleLike(rec, authedRequest(fan, http.MethodPost, "/api/likes/toggle", jsonBody(t, map[string]any{
		"target": map[string]string{"kind": "video", "id": "not-a-store-id"},
	})))
	expectFailure(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	handler.ToggleLike(rec, authedRequest(fan, http.MethodPost, "/api/likes/toggle", jsonBody(t, map[string]any{
		"target": map[string]string{"kind": "video", "id": wellFormed},
	})))
	expectFailure(t, rec, http.StatusNotFound)
}

func TestLikedVideosListing(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "creator")
	fan := createTestUser(t, store, "fan")
	video := createTestVideo(t, store, owner.ID, "clip", true)

	if _, err := store.ToggleLike(fan.ID, models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.LikedVideos(rec, authedRequest(fan, http.MethodGet, "/api/me/likes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
	}
	decodeData(t, decodeEnvelope(t, rec), &payload)
	if len(payload.Videos) != 1 || payload.Videos[0].ID != video.ID {
		t.Fatalf("expected liked video in listing, got %+v", payload)
	}
}
