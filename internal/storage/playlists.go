package storage

import (
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreatePlaylist stores a new playlist. Privacy defaults to public when
// unset.
func (s *Storage) CreatePlaylist(params CreatePlaylistParams) (models.Playlist, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Playlist{}, apperr.Validationf("title is required")
	}
	privacy := params.Privacy
	if privacy == "" {
		privacy = models.PlaylistPublic
	}
	if !models.ValidPlaylistPrivacy(privacy) {
		return models.Playlist{}, apperr.Validationf("unknown privacy %q", params.Privacy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.Playlist{}, apperr.NotFoundf("user %s not found", params.OwnerID)
	}

	id, err := s.generateID()
	if err != nil {
		return models.Playlist{}, apperr.Dependency(err)
	}

	now := time.Now().UTC()
	playlist := models.Playlist{
		ID:          id,
		OwnerID:     params.OwnerID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Privacy:     privacy,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.data.Playlists[id] = playlist
	if err := s.persist(); err != nil {
		delete(s.data.Playlists, id)
		return models.Playlist{}, apperr.Dependency(err)
	}

	return playlist, nil
}

func (s *Storage) GetPlaylist(id string) (models.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playlist, ok := s.data.Playlists[id]
	return playlist, ok
}

// UpdatePlaylist applies the non-nil fields of the update and returns the
// resulting record.
func (s *Storage) UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return models.Playlist{}, apperr.NotFoundf("playlist %s not found", id)
	}
	previous := playlist

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Playlist{}, apperr.Validationf("title cannot be empty")
		}
		playlist.Title = title
	}
	if update.Description != nil {
		playlist.Description = strings.TrimSpace(*update.Description)
	}
	if update.Privacy != nil {
		if !models.ValidPlaylistPrivacy(*update.Privacy) {
			return models.Playlist{}, apperr.Validationf("unknown privacy %q", *update.Privacy)
		}
		playlist.Privacy = *update.Privacy
	}
	playlist.UpdatedAt = time.Now().UTC()

	s.data.Playlists[id] = playlist
	if err := s.persist(); err != nil {
		s.data.Playlists[id] = previous
		return models.Playlist{}, apperr.Dependency(err)
	}

	return playlist, nil
}

// DeletePlaylist removes the playlist. Videos themselves are untouched.
func (s *Storage) DeletePlaylist(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return apperr.NotFoundf("playlist %s not found", id)
	}

	delete(s.data.Playlists, id)
	if err := s.persist(); err != nil {
		s.data.Playlists[id] = playlist
		return apperr.Dependency(err)
	}
	return nil
}

// AddPlaylistVideo appends the video to the playlist. Adding a video that is
// already present is a no-op.
func (s *Storage) AddPlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[playlistID]
	if !ok {
		return models.Playlist{}, apperr.NotFoundf("playlist %s not found", playlistID)
	}
	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Playlist{}, apperr.NotFoundf("video %s not found", videoID)
	}
	if playlist.Contains(videoID) {
		return playlist, nil
	}
	previous := playlist

	playlist.VideoIDs = append(append([]string(nil), playlist.VideoIDs...), videoID)
	playlist.UpdatedAt = time.Now().UTC()

	s.data.Playlists[playlistID] = playlist
	if err := s.persist(); err != nil {
		s.data.Playlists[playlistID] = previous
		return models.Playlist{}, apperr.Dependency(err)
	}

	return playlist, nil
}

// RemovePlaylistVideo drops the video from the playlist.
func (s *Storage) RemovePlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[playlistID]
	if !ok {
		return models.Playlist{}, apperr.NotFoundf("playlist %s not found", playlistID)
	}
	if !playlist.Contains(videoID) {
		return models.Playlist{}, apperr.NotFoundf("video %s is not in playlist %s", videoID, playlistID)
	}
	previous := playlist

	remaining := make([]string, 0, len(playlist.VideoIDs)-1)
	for _, id := range playlist.VideoIDs {
		if id != videoID {
			remaining = append(remaining, id)
		}
	}
	playlist.VideoIDs = remaining
	playlist.UpdatedAt = time.Now().UTC()

	s.data.Playlists[playlistID] = playlist
	if err := s.persist(); err != nil {
		s.data.Playlists[playlistID] = previous
		return models.Playlist{}, apperr.Dependency(err)
	}

	return playlist, nil
}

// IncrementPlaylistViews bumps the view counter by one.
func (s *Storage) IncrementPlaylistViews(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return apperr.NotFoundf("playlist %s not found", id)
	}
	previous := playlist

	playlist.Views++
	s.data.Playlists[id] = playlist
	if err := s.persist(); err != nil {
		s.data.Playlists[id] = previous
		return apperr.Dependency(err)
	}
	return nil
}

// ListUserPlaylists returns a user's playlists, newest first. Private and
// unlisted playlists are included only for the owner; unlisted ones still
// resolve by direct ID for anyone.
func (s *Storage) ListUserPlaylists(ownerID string, includePrivate bool) ([]models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[ownerID]; !ok {
		return nil, apperr.NotFoundf("user %s not found", ownerID)
	}

	playlists := make([]models.Playlist, 0)
	for _, playlist := range s.data.Playlists {
		if playlist.OwnerID != ownerID {
			continue
		}
		if playlist.Privacy != models.PlaylistPublic && !includePrivate {
			continue
		}
		playlists = append(playlists, playlist)
	}
	sortByCreatedAtDesc(playlists, func(p models.Playlist) time.Time { return p.CreatedAt }, func(p models.Playlist) string { return p.ID })

	return playlists, nil
}
