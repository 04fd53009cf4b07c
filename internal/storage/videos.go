package storage

import (
	"sort"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreateVideo stores a new video record. Videos start unpublished unless the
// caller says otherwise.
func (s *Storage) CreateVideo(params CreateVideoParams) (models.Video, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Video{}, apperr.Validationf("title is required")
	}
	if params.VideoFile.URL == "" {
		return models.Video{}, apperr.Validationf("video file is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.Video{}, apperr.NotFoundf("user %s not found", params.OwnerID)
	}

	id, err := s.generateID()
	if err != nil {
		return models.Video{}, apperr.Dependency(err)
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:          id,
		OwnerID:     params.OwnerID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		VideoFile:   params.VideoFile,
		Thumbnail:   params.Thumbnail,
		Duration:    params.Duration,
		Published:   params.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		delete(s.data.Videos, id)
		return models.Video{}, apperr.Dependency(err)
	}

	return video, nil
}

func (s *Storage) GetVideo(id string) (models.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.data.Videos[id]
	return video, ok
}

// sortVideos orders the slice by the requested field. The slice is expected
// to arrive newest first, which stays the tie-break order.
func sortVideos(videos []models.Video, field string, ascending bool) error {
	var less func(a, b models.Video) bool
	switch field {
	case "", "createdAt":
		less = func(a, b models.Video) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "views":
		less = func(a, b models.Video) bool { return a.Views < b.Views }
	case "duration":
		less = func(a, b models.Video) bool { return a.Duration < b.Duration }
	case "title":
		less = func(a, b models.Video) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	default:
		return apperr.Validationf("unknown sort field %q", field)
	}
	sort.SliceStable(videos, func(i, j int) bool {
		if ascending {
			return less(videos[i], videos[j])
		}
		return less(videos[j], videos[i])
	})
	return nil
}

// ListVideos returns the published catalogue, newest first unless the caller
// picks another sort, optionally filtered by a case-insensitive
// title/description query or an owner.
func (s *Storage) ListVideos(params ListVideosParams) ([]models.Video, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(params.Query))
	videos := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		if !video.Published {
			continue
		}
		if params.OwnerID != "" && video.OwnerID != params.OwnerID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(video.Title), query) &&
			!strings.Contains(strings.ToLower(video.Description), query) {
			continue
		}
		videos = append(videos, video)
	}
	sortByCreatedAtDesc(videos, func(v models.Video) time.Time { return v.CreatedAt }, func(v models.Video) string { return v.ID })
	if err := sortVideos(videos, params.SortBy, params.SortAsc); err != nil {
		return nil, 0, err
	}

	pageItems, total := paginate(videos, params.Page, params.Limit)
	return pageItems, total, nil
}

// UpdateVideo applies the non-nil fields of the update and returns the
// resulting record.
func (s *Storage) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, apperr.NotFoundf("video %s not found", id)
	}
	previous := video

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, apperr.Validationf("title cannot be empty")
		}
		video.Title = title
	}
	if update.Description != nil {
		video.Description = strings.TrimSpace(*update.Description)
	}
	if update.Thumbnail != nil {
		video.Thumbnail = *update.Thumbnail
	}
	video.UpdatedAt = time.Now().UTC()

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.Video{}, apperr.Dependency(err)
	}

	return video, nil
}

// SetVideoPublished flips the publish flag.
func (s *Storage) SetVideoPublished(id string, published bool) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, apperr.NotFoundf("video %s not found", id)
	}
	previous := video

	video.Published = published
	video.UpdatedAt = time.Now().UTC()

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.Video{}, apperr.Dependency(err)
	}

	return video, nil
}

// IncrementVideoViews bumps the view counter by one and returns the updated
// record.
func (s *Storage) IncrementVideoViews(id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, apperr.NotFoundf("video %s not found", id)
	}
	previous := video

	video.Views++

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.Video{}, apperr.Dependency(err)
	}

	return video, nil
}

// DeleteVideo removes the video together with its dependants: comments on
// it, likes on it and on those comments, playlist entries, and watch history
// references. The deleted record is returned so callers can release the
// stored media objects.
func (s *Storage) DeleteVideo(id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, apperr.NotFoundf("video %s not found", id)
	}

	delete(s.data.Videos, id)

	commentIDs := make(map[string]struct{})
	for commentID, comment := range s.data.Comments {
		if comment.VideoID == id {
			commentIDs[commentID] = struct{}{}
			delete(s.data.Comments, commentID)
		}
	}
	for likeID, like := range s.data.Likes {
		switch like.Target.Kind {
		case models.LikeTargetVideo:
			if like.Target.ID == id {
				delete(s.data.Likes, likeID)
			}
		case models.LikeTargetComment:
			if _, ok := commentIDs[like.Target.ID]; ok {
				delete(s.data.Likes, likeID)
			}
		}
	}
	for playlistID, playlist := range s.data.Playlists {
		if !playlist.Contains(id) {
			continue
		}
		remaining := make([]string, 0, len(playlist.VideoIDs)-1)
		for _, videoID := range playlist.VideoIDs {
			if videoID != id {
				remaining = append(remaining, videoID)
			}
		}
		playlist.VideoIDs = remaining
		s.data.Playlists[playlistID] = playlist
	}
	for userID, user := range s.data.Users {
		trimmed := user.WatchHistory[:0:0]
		for _, videoID := range user.WatchHistory {
			if videoID != id {
				trimmed = append(trimmed, videoID)
			}
		}
		if len(trimmed) != len(user.WatchHistory) {
			user.WatchHistory = trimmed
			s.data.Users[userID] = user
		}
	}

	if err := s.persist(); err != nil {
		return models.Video{}, apperr.Dependency(err)
	}

	return video, nil
}

// ListChannelVideos returns a channel's uploads, newest first. Unpublished
// videos are included only when the caller owns the channel.
func (s *Storage) ListChannelVideos(channelID string, includeUnpublished bool, page, limit int) ([]models.Video, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return nil, 0, apperr.NotFoundf("channel %s not found", channelID)
	}

	videos := make([]models.Video, 0)
	for _, video := range s.data.Videos {
		if video.OwnerID != channelID {
			continue
		}
		if !video.Published && !includeUnpublished {
			continue
		}
		videos = append(videos, video)
	}
	sortByCreatedAtDesc(videos, func(v models.Video) time.Time { return v.CreatedAt }, func(v models.Video) string { return v.ID })

	pageItems, total := paginate(videos, page, limit)
	return pageItems, total, nil
}
