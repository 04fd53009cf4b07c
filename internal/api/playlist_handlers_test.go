package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

func createTestPlaylist(t *testing.T, store *storage.Storage, ownerID, title string, privacy models.PlaylistPrivacy) models.Playlist {
	t.Helper()
	playlist, err := store.CreatePlaylist(storage.CreatePlaylistParams{
		OwnerID: ownerID,
		Title:   title,
		Privacy: privacy,
	})
	if err != nil {
		t.Fatalf("CreatePlaylist(%s): %v", title, err)
	}
	return playlist
}

func TestCreatePlaylistDefaultsToPublic(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "curator")

	rec := httptest.NewRecorder()
	handler.Playlists(rec, authedRequest(owner, http.MethodPost, "/api/playlists", jsonBody(t, map[string]string{
		"title": "watch later",
	})))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var view struct {
		Privacy string `json:"privacy"`
		Owner   struct {
			Username string `json:"username"`
		} `json:"owner"`
	}
	decodeData(t, decodeEnvelope(t, rec), &view)
	if view.Privacy != "public" {
		t.Fatalf("expected public default, got %q", view.Privacy)
	}
	if view.Owner.Username != "curator" {
		t.Fatalf("expected owner join, got %+v", view.Owner)
	}
}

func TestPrivatePlaylistForbiddenForOthers(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "curator")
	other := createTestUser(t, store, "other")
	playlist := createTestPlaylist(t, store, owner.ID, "secret mix", models.PlaylistPrivate)

	rec := httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(other, http.MethodGet, "/api/playlists/"+playlist.ID, nil))
	expectFailure(t, rec, http.StatusForbidden)

	rec = httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(owner, http.MethodGet, "/api/playlists/"+playlist.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected owner to see private playlist, got %d", rec.Code)
	}
}

func TestPlaylistViewCountsNonOwnerReads(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "curator")
	other := createTestUser(t, store, "other")
	playlist := createTestPlaylist(t, store, owner.ID, "public mix", models.PlaylistPublic)

	rec := httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(other, http.MethodGet, "/api/playlists/"+playlist.ID, nil))
	var view struct {
		Views int64 `json:"views"`
	}
	decodeData(t, decodeEnvelope(t, rec), &view)
	if view.Views != 1 {
		t.Fatalf("expected non-owner read to count a view, got %d", view.Views)
	}

	// Owner reads do not inflate the count.
	rec = httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(owner, http.MethodGet, "/api/playlists/"+playlist.ID, nil))
	decodeData(t, decodeEnvelope(t, rec), &view)
	if view.Views != 1 {
		t.Fatalf("expected owner read not to count, got %d", view.Views)
	}
}

func TestPlaylistVideoMembership(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "curator")
	intruder := createTestUser(t, store, "intruder")
	video := createTestVideo(t, store, owner.ID, "clip", true)
	playlist := createTestPlaylist(t, store, owner.ID, "mix", models.PlaylistPublic)

	base := "/api/playlists/" + playlist.ID + "/videos/" + video.ID

	rec := httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(intruder, http.MethodPost, base, nil))
	expectFailure(t, rec, http.StatusForbidden)

	rec = httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(owner, http.MethodPost, base, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 add, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var view struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
	}
	decodeData(t, decodeEnvelope(t, rec), &view)
	if len(view.Videos) != 1 || view.Videos[0].ID != video.ID {
		t.Fatalf("expected resolved video in playlist view, got %+v", view)
	}

	rec = httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(owner, http.MethodDelete, base, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 remove, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(owner, http.MethodDelete, base, nil))
	expectFailure(t, rec, http.StatusNotFound)
}

func TestUserPlaylistsPrivacyFilter(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "curator")
	createTestPlaylist(t, store, owner.ID, "public mix", models.PlaylistPublic)
	createTestPlaylist(t, store, owner.ID, "secret mix", models.PlaylistPrivate)

	rec := httptest.NewRecorder()
	handler.UserByPath(rec, httptest.NewRequest(http.MethodGet, "/api/users/"+owner.ID+"/playlists", nil))
	var payload struct {
		Playlists []struct {
			Title string `json:"title"`
		} `json:"playlists"`
	}
	decodeData(t, decodeEnvelope(t, rec), &payload)
	if len(payload.Playlists) != 1 || payload.Playlists[0].Title != "public mix" {
		t.Fatalf("expected only public playlist for anonymous caller, got %+v", payload)
	}

	rec = httptest.NewRecorder()
	handler.UserByPath(rec, authedRequest(owner, http.MethodGet, "/api/users/"+owner.ID+"/playlists", nil))
	decodeData(t, decodeEnvelope(t, rec), &payload)
	if len(payload.Playlists) != 2 {
		t.Fatalf("expected owner to see both playlists, got %+v", payload)
	}
}

func TestDeletePlaylistRequiresOwner(t *testing.T) {
	handler, store := newTestHandler(t)
	owner := createTestUser(t, store, "curator")
	intruder := createTestUser(t, store, "intruder")
	playlist := createTestPlaylist(t, store, owner.ID, "mix", models.PlaylistPublic)

	rec := httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(intruder, http.MethodDelete, "/api/playlists/"+playlist.ID, nil))
	expectFailure(t, rec, http.StatusForbidden)

	rec = httptest.NewRecorder()
	handler.PlaylistByID(rec, authedRequest(owner, http.MethodDelete, "/api/playlists/"+playlist.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 delete, got %d", rec.Code)
	}
	if _, ok := store.GetPlaylist(playlist.ID); ok {
		t.Fatalf("expected playlist to be gone")
	}
}
