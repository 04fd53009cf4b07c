package storage

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/auth"
	"clipstream/internal/models"
)

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Storage) usernameTakenLocked(username, excludeID string) bool {
	for _, user := range s.data.Users {
		if user.ID != excludeID && user.Username == username {
			return true
		}
	}
	return false
}

func (s *Storage) emailTakenLocked(email, excludeID string) bool {
	for _, user := range s.data.Users {
		if user.ID != excludeID && user.Email == email {
			return true
		}
	}
	return false
}

// CreateUser registers an account. Username and email are normalised to
// lower case and must be unique across the store.
func (s *Storage) CreateUser(params CreateUserParams) (models.User, error) {
	username := normalizeUsername(params.Username)
	if username == "" {
		return models.User{}, apperr.Validationf("username is required")
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return models.User{}, apperr.Validationf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperr.Validationf("email %q is not a valid address", params.Email)
	}
	fullName := strings.TrimSpace(params.FullName)
	if fullName == "" {
		return models.User{}, apperr.Validationf("fullName is required")
	}
	if params.Password == "" {
		return models.User{}, apperr.Validationf("password is required")
	}

	passwordHash, err := auth.HashPassword(params.Password)
	if err != nil {
		return models.User{}, apperr.Dependency(fmt.Errorf("hash password: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTakenLocked(username, "") {
		return models.User{}, apperr.Validationf("username %q is already taken", username)
	}
	if s.emailTakenLocked(email, "") {
		return models.User{}, apperr.Validationf("email %q is already in use", email)
	}

	id, err := s.generateID()
	if err != nil {
		return models.User{}, apperr.Dependency(err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		FullName:     fullName,
		AvatarURL:    params.Avatar.URL,
		AvatarKey:    params.Avatar.Key,
		CoverURL:     params.Cover.URL,
		CoverKey:     params.Cover.Key,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.data.Users[id] = user
	if err := s.persist(); err != nil {
		delete(s.data.Users, id)
		return models.User{}, apperr.Dependency(err)
	}

	return user, nil
}

// AuthenticateUser verifies credentials against a username or email address.
// Unknown accounts and wrong passwords are indistinguishable to callers.
func (s *Storage) AuthenticateUser(identifier, password string) (models.User, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return models.User{}, apperr.Validationf("username or email and password are required")
	}

	user, ok := s.FindUserByUsername(identifier)
	if !ok {
		user, ok = s.findUserByEmail(identifier)
	}
	if !ok {
		return models.User{}, apperr.Unauthenticatedf("invalid credentials")
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		if err == auth.ErrInvalidCredentials {
			return models.User{}, apperr.Unauthenticatedf("invalid credentials")
		}
		return models.User{}, apperr.Dependency(err)
	}
	return user, nil
}

func (s *Storage) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.Users[id]
	return user, ok
}

// FindUserByUsername looks up a user by their normalised username.
func (s *Storage) FindUserByUsername(username string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	normalized := normalizeUsername(username)
	for _, user := range s.data.Users {
		if user.Username == normalized {
			return user, true
		}
	}
	return models.User{}, false
}

func (s *Storage) findUserByEmail(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	normalized := normalizeEmail(email)
	for _, user := range s.data.Users {
		if user.Email == normalized {
			return user, true
		}
	}
	return models.User{}, false
}

// UpdateUser applies the non-nil fields of the update and returns the
// resulting record.
func (s *Storage) UpdateUser(id string, update UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return models.User{}, apperr.NotFoundf("user %s not found", id)
	}
	previous := user

	if update.FullName != nil {
		fullName := strings.TrimSpace(*update.FullName)
		if fullName == "" {
			return models.User{}, apperr.Validationf("fullName cannot be empty")
		}
		user.FullName = fullName
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return models.User{}, apperr.Validationf("email %q is not a valid address", *update.Email)
		}
		if s.emailTakenLocked(email, id) {
			return models.User{}, apperr.Validationf("email %q is already in use", email)
		}
		user.Email = email
	}
	if update.Avatar != nil {
		user.AvatarURL = update.Avatar.URL
		user.AvatarKey = update.Avatar.Key
	}
	if update.Cover != nil {
		user.CoverURL = update.Cover.URL
		user.CoverKey = update.Cover.Key
	}
	user.UpdatedAt = time.Now().UTC()

	s.data.Users[id] = user
	if err := s.persist(); err != nil {
		s.data.Users[id] = previous
		return models.User{}, apperr.Dependency(err)
	}

	return user, nil
}

// SetUserPassword replaces the stored hash. Old-password verification is the
// caller's responsibility.
func (s *Storage) SetUserPassword(id, password string) error {
	if password == "" {
		return apperr.Validationf("password is required")
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Dependency(fmt.Errorf("hash password: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return apperr.NotFoundf("user %s not found", id)
	}
	previous := user

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()

	s.data.Users[id] = user
	if err := s.persist(); err != nil {
		s.data.Users[id] = previous
		return apperr.Dependency(err)
	}
	return nil
}

// SetRefreshToken stores the single active refresh token for the user. An
// empty token clears the session.
func (s *Storage) SetRefreshToken(userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[userID]
	if !ok {
		return apperr.NotFoundf("user %s not found", userID)
	}
	previous := user

	user.RefreshToken = token
	s.data.Users[userID] = user
	if err := s.persist(); err != nil {
		s.data.Users[userID] = previous
		return apperr.Dependency(err)
	}
	return nil
}

// AddWatchHistory records that the user watched the video. The entry moves
// to the front of the history; a video appears at most once.
func (s *Storage) AddWatchHistory(userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[userID]
	if !ok {
		return apperr.NotFoundf("user %s not found", userID)
	}
	if _, ok := s.data.Videos[videoID]; !ok {
		return apperr.NotFoundf("video %s not found", videoID)
	}
	previous := user

	history := make([]string, 0, len(user.WatchHistory)+1)
	history = append(history, videoID)
	for _, id := range user.WatchHistory {
		if id != videoID {
			history = append(history, id)
		}
	}
	user.WatchHistory = history

	s.data.Users[userID] = user
	if err := s.persist(); err != nil {
		s.data.Users[userID] = previous
		return apperr.Dependency(err)
	}
	return nil
}

// WatchHistory resolves the user's history into video records, most recently
// watched first. Entries whose video has since been deleted are skipped.
func (s *Storage) WatchHistory(userID string, page, limit int) ([]models.Video, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.data.Users[userID]
	if !ok {
		return nil, 0, apperr.NotFoundf("user %s not found", userID)
	}

	videos := make([]models.Video, 0, len(user.WatchHistory))
	for _, videoID := range user.WatchHistory {
		if video, ok := s.data.Videos[videoID]; ok {
			videos = append(videos, video)
		}
	}
	pageItems, total := paginate(videos, page, limit)
	return pageItems, total, nil
}
