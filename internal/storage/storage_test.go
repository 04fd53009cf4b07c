package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return store
}

func createTestUser(t *testing.T, store *Storage, username string) models.User {
	t.Helper()
	user, err := store.CreateUser(CreateUserParams{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: "s3cret-" + username,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return user
}

func createTestVideo(t *testing.T, store *Storage, ownerID, title string, published bool) models.Video {
	t.Helper()
	video, err := store.CreateVideo(CreateVideoParams{
		OwnerID:   ownerID,
		Title:     title,
		VideoFile: models.MediaObject{URL: "https://cdn.example.com/" + title + ".mp4", Key: title + ".mp4"},
		Duration:  42.5,
		Published: published,
	})
	if err != nil {
		t.Fatalf("CreateVideo(%s): %v", title, err)
	}
	return video
}

func TestCreateUserEnforcesUniqueness(t *testing.T) {
	store := newTestStorage(t)
	createTestUser(t, store, "ada")

	_, err := store.CreateUser(CreateUserParams{
		Username: "ADA",
		Email:    "other@example.com",
		FullName: "Other",
		Password: "secret",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for duplicate username, got %v", err)
	}

	_, err = store.CreateUser(CreateUserParams{
		Username: "grace",
		Email:    "Ada@Example.com",
		FullName: "Grace",
		Password: "secret",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for duplicate email, got %v", err)
	}
}

func TestAuthenticateUserByUsernameAndEmail(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")

	for _, identifier := range []string{"ada", "ada@example.com", "ADA"} {
		got, err := store.AuthenticateUser(identifier, "s3cret-ada")
		if err != nil {
			t.Fatalf("AuthenticateUser(%s): %v", identifier, err)
		}
		if got.ID != user.ID {
			t.Fatalf("AuthenticateUser(%s): got user %s want %s", identifier, got.ID, user.ID)
		}
	}

	if _, err := store.AuthenticateUser("ada", "wrong"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated for wrong password, got %v", err)
	}
	if _, err := store.AuthenticateUser("nobody", "s3cret-ada"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated for unknown account, got %v", err)
	}
}

func TestStorageReloadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	user := createTestUser(t, store, "ada")
	video := createTestVideo(t, store, user.ID, "intro", true)

	reloaded, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage reload: %v", err)
	}
	if _, ok := reloaded.GetUser(user.ID); !ok {
		t.Fatalf("user %s missing after reload", user.ID)
	}
	if _, ok := reloaded.GetVideo(video.ID); !ok {
		t.Fatalf("video %s missing after reload", video.ID)
	}
}

func TestListVideosFiltersUnpublished(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")
	createTestVideo(t, store, user.ID, "draft", false)
	published := createTestVideo(t, store, user.ID, "live", true)

	videos, total, err := store.ListVideos(ListVideosParams{})
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if total != 1 || len(videos) != 1 || videos[0].ID != published.ID {
		t.Fatalf("expected only the published video, got total=%d videos=%v", total, videos)
	}
}

func TestListChannelVideosIncludesDraftsForOwner(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")
	createTestVideo(t, store, user.ID, "draft", false)
	createTestVideo(t, store, user.ID, "live", true)

	videos, total, err := store.ListChannelVideos(user.ID, true, 1, 10)
	if err != nil {
		t.Fatalf("ListChannelVideos: %v", err)
	}
	if total != 2 || len(videos) != 2 {
		t.Fatalf("expected both uploads for the owner, got total=%d", total)
	}

	videos, total, err = store.ListChannelVideos(user.ID, false, 1, 10)
	if err != nil {
		t.Fatalf("ListChannelVideos public: %v", err)
	}
	if total != 1 || len(videos) != 1 {
		t.Fatalf("expected only published uploads publicly, got total=%d", total)
	}
}

func TestCommentPagination(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")
	video := createTestVideo(t, store, user.ID, "intro", true)

	for i := 0; i < 25; i++ {
		if _, err := store.CreateComment(video.ID, user.ID, fmt.Sprintf("comment %02d", i)); err != nil {
			t.Fatalf("CreateComment %d: %v", i, err)
		}
	}

	page2, total, err := store.ListVideoComments(video.ID, 2, 10)
	if err != nil {
		t.Fatalf("ListVideoComments: %v", err)
	}
	if total != 25 {
		t.Fatalf("total = %d, want 25", total)
	}
	if len(page2) != 10 {
		t.Fatalf("page size = %d, want 10", len(page2))
	}

	page3, _, err := store.ListVideoComments(video.ID, 3, 10)
	if err != nil {
		t.Fatalf("ListVideoComments page 3: %v", err)
	}
	if len(page3) != 5 {
		t.Fatalf("last page size = %d, want 5", len(page3))
	}

	empty, _, err := store.ListVideoComments(video.ID, 4, 10)
	if err != nil {
		t.Fatalf("ListVideoComments page 4: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("out-of-range page should be empty, got %d items", len(empty))
	}
}

func TestTweetLengthLimit(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")

	long := make([]rune, 281)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := store.CreateTweet(user.ID, string(long)); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for 281 runes, got %v", err)
	}
	if _, err := store.CreateTweet(user.ID, string(long[:280])); err != nil {
		t.Fatalf("280 runes should be accepted: %v", err)
	}
	if _, err := store.CreateTweet(user.ID, "   "); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank content, got %v", err)
	}
}

func TestToggleLikeFlipsState(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")
	video := createTestVideo(t, store, user.ID, "intro", true)
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}

	liked, err := store.ToggleLike(user.ID, target)
	if err != nil || !liked {
		t.Fatalf("first toggle: liked=%v err=%v", liked, err)
	}
	if store.CountLikes(target) != 1 || !store.HasLiked(user.ID, target) {
		t.Fatalf("like not recorded")
	}

	liked, err = store.ToggleLike(user.ID, target)
	if err != nil || liked {
		t.Fatalf("second toggle: liked=%v err=%v", liked, err)
	}
	if store.CountLikes(target) != 0 || store.HasLiked(user.ID, target) {
		t.Fatalf("like not removed")
	}

	if _, err := store.ToggleLike(user.ID, models.LikeTarget{Kind: models.LikeTargetVideo, ID: "missing"}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for missing target, got %v", err)
	}
	if _, err := store.ToggleLike(user.ID, models.LikeTarget{Kind: "channel", ID: video.ID}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation for unknown kind, got %v", err)
	}
}

func TestDeleteVideoCascades(t *testing.T) {
	store := newTestStorage(t)
	owner := createTestUser(t, store, "ada")
	viewer := createTestUser(t, store, "grace")
	video := createTestVideo(t, store, owner.ID, "intro", true)

	comment, err := store.CreateComment(video.ID, viewer.ID, "nice one")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if _, err := store.ToggleLike(viewer.ID, models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}); err != nil {
		t.Fatalf("ToggleLike video: %v", err)
	}
	if _, err := store.ToggleLike(owner.ID, models.LikeTarget{Kind: models.LikeTargetComment, ID: comment.ID}); err != nil {
		t.Fatalf("ToggleLike comment: %v", err)
	}
	playlist, err := store.CreatePlaylist(CreatePlaylistParams{OwnerID: owner.ID, Title: "favourites"})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if _, err := store.AddPlaylistVideo(playlist.ID, video.ID); err != nil {
		t.Fatalf("AddPlaylistVideo: %v", err)
	}
	if err := store.AddWatchHistory(viewer.ID, video.ID); err != nil {
		t.Fatalf("AddWatchHistory: %v", err)
	}

	if _, err := store.DeleteVideo(video.ID); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}

	if _, ok := store.GetVideo(video.ID); ok {
		t.Fatalf("video still present after delete")
	}
	if _, ok := store.GetComment(comment.ID); ok {
		t.Fatalf("comment survived video delete")
	}
	if store.CountLikes(models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}) != 0 {
		t.Fatalf("video likes survived delete")
	}
	if store.CountLikes(models.LikeTarget{Kind: models.LikeTargetComment, ID: comment.ID}) != 0 {
		t.Fatalf("comment likes survived delete")
	}
	refreshed, ok := store.GetPlaylist(playlist.ID)
	if !ok || refreshed.Contains(video.ID) {
		t.Fatalf("playlist still references deleted video")
	}
	history, _, err := store.WatchHistory(viewer.ID, 1, 10)
	if err != nil {
		t.Fatalf("WatchHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("watch history still references deleted video")
	}
}

func TestDeleteTweetRemovesLikes(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")
	tweet, err := store.CreateTweet(user.ID, "hello")
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	target := models.LikeTarget{Kind: models.LikeTargetTweet, ID: tweet.ID}
	if _, err := store.ToggleLike(user.ID, target); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if err := store.DeleteTweet(tweet.ID); err != nil {
		t.Fatalf("DeleteTweet: %v", err)
	}
	if store.CountLikes(target) != 0 {
		t.Fatalf("tweet likes survived delete")
	}
}

func TestWatchHistoryDeduplicatesAndOrders(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")
	first := createTestVideo(t, store, user.ID, "first", true)
	second := createTestVideo(t, store, user.ID, "second", true)

	for _, videoID := range []string{first.ID, second.ID, first.ID} {
		if err := store.AddWatchHistory(user.ID, videoID); err != nil {
			t.Fatalf("AddWatchHistory(%s): %v", videoID, err)
		}
	}

	history, total, err := store.WatchHistory(user.ID, 1, 10)
	if err != nil {
		t.Fatalf("WatchHistory: %v", err)
	}
	if total != 2 || len(history) != 2 {
		t.Fatalf("expected 2 entries, got total=%d len=%d", total, len(history))
	}
	if history[0].ID != first.ID || history[1].ID != second.ID {
		t.Fatalf("expected rewatched video first, got %s then %s", history[0].ID, history[1].ID)
	}
}

func TestIncrementVideoViews(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")
	video := createTestVideo(t, store, user.ID, "intro", true)

	for i := 0; i < 3; i++ {
		if _, err := store.IncrementVideoViews(video.ID); err != nil {
			t.Fatalf("IncrementVideoViews: %v", err)
		}
	}
	refreshed, _ := store.GetVideo(video.ID)
	if refreshed.Views != 3 {
		t.Fatalf("views = %d, want 3", refreshed.Views)
	}
}

func TestPlaylistPrivacyVisibility(t *testing.T) {
	store := newTestStorage(t)
	owner := createTestUser(t, store, "ada")

	if _, err := store.CreatePlaylist(CreatePlaylistParams{OwnerID: owner.ID, Title: "open"}); err != nil {
		t.Fatalf("CreatePlaylist public: %v", err)
	}
	if _, err := store.CreatePlaylist(CreatePlaylistParams{OwnerID: owner.ID, Title: "secret", Privacy: models.PlaylistPrivate}); err != nil {
		t.Fatalf("CreatePlaylist private: %v", err)
	}
	if _, err := store.CreatePlaylist(CreatePlaylistParams{OwnerID: owner.ID, Title: "hidden", Privacy: models.PlaylistUnlisted}); err != nil {
		t.Fatalf("CreatePlaylist unlisted: %v", err)
	}
	if _, err := store.CreatePlaylist(CreatePlaylistParams{OwnerID: owner.ID, Title: "bad", Privacy: "secretive"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown privacy, got %v", err)
	}

	all, err := store.ListUserPlaylists(owner.ID, true)
	if err != nil {
		t.Fatalf("ListUserPlaylists owner: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("owner should see 3 playlists, got %d", len(all))
	}

	visible, err := store.ListUserPlaylists(owner.ID, false)
	if err != nil {
		t.Fatalf("ListUserPlaylists public: %v", err)
	}
	if len(visible) != 1 || visible[0].Privacy != models.PlaylistPublic {
		t.Fatalf("public listing should carry only public playlists, got %+v", visible)
	}
}

func TestAddPlaylistVideoIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	owner := createTestUser(t, store, "ada")
	video := createTestVideo(t, store, owner.ID, "intro", true)
	playlist, err := store.CreatePlaylist(CreatePlaylistParams{OwnerID: owner.ID, Title: "favourites"})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	for i := 0; i < 2; i++ {
		playlist, err = store.AddPlaylistVideo(playlist.ID, video.ID)
		if err != nil {
			t.Fatalf("AddPlaylistVideo attempt %d: %v", i, err)
		}
	}
	if len(playlist.VideoIDs) != 1 {
		t.Fatalf("video duplicated in playlist: %v", playlist.VideoIDs)
	}

	if _, err := store.RemovePlaylistVideo(playlist.ID, video.ID); err != nil {
		t.Fatalf("RemovePlaylistVideo: %v", err)
	}
	if _, err := store.RemovePlaylistVideo(playlist.ID, video.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found removing absent video, got %v", err)
	}
}

func TestToggleSubscription(t *testing.T) {
	store := newTestStorage(t)
	subscriber := createTestUser(t, store, "ada")
	channel := createTestUser(t, store, "grace")

	if _, err := store.ToggleSubscription(subscriber.ID, subscriber.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for self-subscription, got %v", err)
	}

	subscribed, err := store.ToggleSubscription(subscriber.ID, channel.ID)
	if err != nil || !subscribed {
		t.Fatalf("first toggle: subscribed=%v err=%v", subscribed, err)
	}
	if !store.IsSubscribed(subscriber.ID, channel.ID) || store.CountSubscribers(channel.ID) != 1 {
		t.Fatalf("subscription not recorded")
	}

	subscribers, err := store.ListChannelSubscribers(channel.ID)
	if err != nil || len(subscribers) != 1 || subscribers[0].ID != subscriber.ID {
		t.Fatalf("ListChannelSubscribers = %v, err=%v", subscribers, err)
	}
	channels, err := store.ListSubscribedChannels(subscriber.ID)
	if err != nil || len(channels) != 1 || channels[0].ID != channel.ID {
		t.Fatalf("ListSubscribedChannels = %v, err=%v", channels, err)
	}

	subscribed, err = store.ToggleSubscription(subscriber.ID, channel.ID)
	if err != nil || subscribed {
		t.Fatalf("second toggle: subscribed=%v err=%v", subscribed, err)
	}
	if store.CountSubscribers(channel.ID) != 0 {
		t.Fatalf("subscription not removed")
	}
}

func TestChannelStats(t *testing.T) {
	store := newTestStorage(t)
	owner := createTestUser(t, store, "ada")
	fan := createTestUser(t, store, "grace")

	first := createTestVideo(t, store, owner.ID, "first", true)
	createTestVideo(t, store, owner.ID, "draft", false)
	for i := 0; i < 4; i++ {
		if _, err := store.IncrementVideoViews(first.ID); err != nil {
			t.Fatalf("IncrementVideoViews: %v", err)
		}
	}
	if _, err := store.ToggleLike(fan.ID, models.LikeTarget{Kind: models.LikeTargetVideo, ID: first.ID}); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if _, err := store.ToggleSubscription(fan.ID, owner.ID); err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}
	if _, err := store.CreateComment(first.ID, fan.ID, "nice one"); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	stats, err := store.ChannelStats(owner.ID)
	if err != nil {
		t.Fatalf("ChannelStats: %v", err)
	}
	top := stats.TopVideo
	stats.TopVideo = nil
	want := ChannelStats{
		TotalVideos:      2,
		PublishedVideos:  1,
		DraftVideos:      1,
		TotalViews:       4,
		TotalDuration:    85,
		TotalComments:    1,
		TotalLikes:       1,
		TotalSubscribers: 1,
	}
	if stats != want {
		t.Fatalf("ChannelStats = %+v, want %+v", stats, want)
	}
	if top == nil || top.ID != first.ID || top.Views != 4 {
		t.Fatalf("TopVideo = %+v, want %s with 4 views", top, first.ID)
	}

	if _, err := store.ChannelStats("missing"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown channel, got %v", err)
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	store := newTestStorage(t)
	user := createTestUser(t, store, "ada")

	store.persistOverride = func(dataset) error { return errors.New("disk full") }
	_, err := store.CreateTweet(user.ID, "hello")
	if !apperr.IsKind(err, apperr.KindDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	store.persistOverride = nil

	tweets, total, err := store.ListUserTweets(user.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListUserTweets: %v", err)
	}
	if total != 0 || len(tweets) != 0 {
		t.Fatalf("failed create leaked state: %v", tweets)
	}
}
