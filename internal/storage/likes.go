package storage

import (
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

func (s *Storage) likeTargetExistsLocked(target models.LikeTarget) bool {
	switch target.Kind {
	case models.LikeTargetVideo:
		_, ok := s.data.Videos[target.ID]
		return ok
	case models.LikeTargetComment:
		_, ok := s.data.Comments[target.ID]
		return ok
	case models.LikeTargetTweet:
		_, ok := s.data.Tweets[target.ID]
		return ok
	}
	return false
}

func (s *Storage) findLikeLocked(userID string, target models.LikeTarget) (string, bool) {
	for likeID, like := range s.data.Likes {
		if like.LikedBy == userID && like.Target == target {
			return likeID, true
		}
	}
	return "", false
}

// ToggleLike flips the user's like on the target. It returns true when the
// like now exists and false when it was removed. At most one like per
// (user, target) pair ever exists.
func (s *Storage) ToggleLike(userID string, target models.LikeTarget) (bool, error) {
	if err := target.Validate(); err != nil {
		return false, apperr.Validationf("%s", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[userID]; !ok {
		return false, apperr.NotFoundf("user %s not found", userID)
	}
	if !s.likeTargetExistsLocked(target) {
		return false, apperr.NotFoundf("%s %s not found", target.Kind, target.ID)
	}

	if likeID, ok := s.findLikeLocked(userID, target); ok {
		removed := s.data.Likes[likeID]
		delete(s.data.Likes, likeID)
		if err := s.persist(); err != nil {
			s.data.Likes[likeID] = removed
			return false, apperr.Dependency(err)
		}
		return false, nil
	}

	id, err := s.generateID()
	if err != nil {
		return false, apperr.Dependency(err)
	}
	like := models.Like{
		ID:        id,
		LikedBy:   userID,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
	s.data.Likes[id] = like
	if err := s.persist(); err != nil {
		delete(s.data.Likes, id)
		return false, apperr.Dependency(err)
	}
	return true, nil
}

// CountLikes returns the number of likes on the target.
func (s *Storage) CountLikes(target models.LikeTarget) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, like := range s.data.Likes {
		if like.Target == target {
			count++
		}
	}
	return count
}

// HasLiked reports whether the user currently likes the target.
func (s *Storage) HasLiked(userID string, target models.LikeTarget) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.findLikeLocked(userID, target)
	return ok
}

// ListLikedVideos returns the videos the user has liked, most recently liked
// first.
func (s *Storage) ListLikedVideos(userID string, page, limit int) ([]models.Video, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[userID]; !ok {
		return nil, 0, apperr.NotFoundf("user %s not found", userID)
	}

	likes := make([]models.Like, 0)
	for _, like := range s.data.Likes {
		if like.LikedBy == userID && like.Target.Kind == models.LikeTargetVideo {
			likes = append(likes, like)
		}
	}
	sortByCreatedAtDesc(likes, func(l models.Like) time.Time { return l.CreatedAt }, func(l models.Like) string { return l.ID })

	videos := make([]models.Video, 0, len(likes))
	for _, like := range likes {
		if video, ok := s.data.Videos[like.Target.ID]; ok {
			videos = append(videos, video)
		}
	}

	pageItems, total := paginate(videos, page, limit)
	return pageItems, total, nil
}
