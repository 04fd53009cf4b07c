package storage

import (
	"strings"
	"time"
	"unicode/utf8"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

const tweetMaxLength = 280

func validateTweetContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validationf("content is required")
	}
	if utf8.RuneCountInString(content) > tweetMaxLength {
		return "", apperr.Validationf("content exceeds %d characters", tweetMaxLength)
	}
	return content, nil
}

// CreateTweet records a short status post for the user.
func (s *Storage) CreateTweet(ownerID, content string) (models.Tweet, error) {
	content, err := validateTweetContent(content)
	if err != nil {
		return models.Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[ownerID]; !ok {
		return models.Tweet{}, apperr.NotFoundf("user %s not found", ownerID)
	}

	id, err := s.generateID()
	if err != nil {
		return models.Tweet{}, apperr.Dependency(err)
	}

	now := time.Now().UTC()
	tweet := models.Tweet{
		ID:        id,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.data.Tweets[id] = tweet
	if err := s.persist(); err != nil {
		delete(s.data.Tweets, id)
		return models.Tweet{}, apperr.Dependency(err)
	}

	return tweet, nil
}

func (s *Storage) GetTweet(id string) (models.Tweet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tweet, ok := s.data.Tweets[id]
	return tweet, ok
}

// UpdateTweet replaces the tweet body.
func (s *Storage) UpdateTweet(id, content string) (models.Tweet, error) {
	content, err := validateTweetContent(content)
	if err != nil {
		return models.Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tweet, ok := s.data.Tweets[id]
	if !ok {
		return models.Tweet{}, apperr.NotFoundf("tweet %s not found", id)
	}
	previous := tweet

	tweet.Content = content
	tweet.UpdatedAt = time.Now().UTC()

	s.data.Tweets[id] = tweet
	if err := s.persist(); err != nil {
		s.data.Tweets[id] = previous
		return models.Tweet{}, apperr.Dependency(err)
	}

	return tweet, nil
}

// DeleteTweet removes the tweet and any likes pointing at it.
func (s *Storage) DeleteTweet(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Tweets[id]; !ok {
		return apperr.NotFoundf("tweet %s not found", id)
	}

	delete(s.data.Tweets, id)
	for likeID, like := range s.data.Likes {
		if like.Target.Kind == models.LikeTargetTweet && like.Target.ID == id {
			delete(s.data.Likes, likeID)
		}
	}

	if err := s.persist(); err != nil {
		return apperr.Dependency(err)
	}
	return nil
}

// ListUserTweets returns a user's tweets, newest first.
func (s *Storage) ListUserTweets(userID string, page, limit int) ([]models.Tweet, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[userID]; !ok {
		return nil, 0, apperr.NotFoundf("user %s not found", userID)
	}

	tweets := make([]models.Tweet, 0)
	for _, tweet := range s.data.Tweets {
		if tweet.OwnerID == userID {
			tweets = append(tweets, tweet)
		}
	}
	sortByCreatedAtDesc(tweets, func(t models.Tweet) time.Time { return t.CreatedAt }, func(t models.Tweet) string { return t.ID })

	pageItems, total := paginate(tweets, page, limit)
	return pageItems, total, nil
}
