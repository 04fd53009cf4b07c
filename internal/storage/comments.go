package storage

import (
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// CreateComment attaches a comment to a video.
func (s *Storage) CreateComment(videoID, ownerID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.Validationf("content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Comment{}, apperr.NotFoundf("video %s not found", videoID)
	}
	if _, ok := s.data.Users[ownerID]; !ok {
		return models.Comment{}, apperr.NotFoundf("user %s not found", ownerID)
	}

	id, err := s.generateID()
	if err != nil {
		return models.Comment{}, apperr.Dependency(err)
	}

	now := time.Now().UTC()
	comment := models.Comment{
		ID:        id,
		VideoID:   videoID,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.data.Comments[id] = comment
	if err := s.persist(); err != nil {
		delete(s.data.Comments, id)
		return models.Comment{}, apperr.Dependency(err)
	}

	return comment, nil
}

func (s *Storage) GetComment(id string) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comment, ok := s.data.Comments[id]
	return comment, ok
}

// UpdateComment replaces the comment body.
func (s *Storage) UpdateComment(id, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.Validationf("content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.data.Comments[id]
	if !ok {
		return models.Comment{}, apperr.NotFoundf("comment %s not found", id)
	}
	previous := comment

	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()

	s.data.Comments[id] = comment
	if err := s.persist(); err != nil {
		s.data.Comments[id] = previous
		return models.Comment{}, apperr.Dependency(err)
	}

	return comment, nil
}

// DeleteComment removes the comment and any likes pointing at it.
func (s *Storage) DeleteComment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Comments[id]; !ok {
		return apperr.NotFoundf("comment %s not found", id)
	}

	delete(s.data.Comments, id)
	for likeID, like := range s.data.Likes {
		if like.Target.Kind == models.LikeTargetComment && like.Target.ID == id {
			delete(s.data.Likes, likeID)
		}
	}

	if err := s.persist(); err != nil {
		return apperr.Dependency(err)
	}
	return nil
}

// ListVideoComments returns a video's comments, newest first.
func (s *Storage) ListVideoComments(videoID string, page, limit int) ([]models.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return nil, 0, apperr.NotFoundf("video %s not found", videoID)
	}

	comments := make([]models.Comment, 0)
	for _, comment := range s.data.Comments {
		if comment.VideoID == videoID {
			comments = append(comments, comment)
		}
	}
	sortByCreatedAtDesc(comments, func(c models.Comment) time.Time { return c.CreatedAt }, func(c models.Comment) string { return c.ID })

	pageItems, total := paginate(comments, page, limit)
	return pageItems, total, nil
}
