package auth

import (
	"fmt"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

// SessionStore is the slice of persistence the session manager needs. The
// storage package's Repository satisfies it.
type SessionStore interface {
	GetUser(id string) (models.User, bool)
	SetRefreshToken(userID, token string) error
}

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionManager owns the refresh-token lifecycle. Each user holds at most
// one active refresh token; issuing a new pair overwrites the previous token,
// which invalidates it everywhere else it may still be held.
type SessionManager struct {
	issuer *TokenIssuer
	store  SessionStore
}

func NewSessionManager(issuer *TokenIssuer, store SessionStore) *SessionManager {
	return &SessionManager{issuer: issuer, store: store}
}

// Issuer exposes the underlying token issuer for cookie TTLs.
func (m *SessionManager) Issuer() *TokenIssuer {
	return m.issuer
}

// Rotate mints a fresh access/refresh pair for the user and persists the new
// refresh token as the single active one. Last write wins when rotations
// race.
func (m *SessionManager) Rotate(user models.User) (TokenPair, error) {
	access, err := m.issuer.IssueAccess(user)
	if err != nil {
		return TokenPair{}, apperr.Dependency(err)
	}
	refresh, err := m.issuer.IssueRefresh(user)
	if err != nil {
		return TokenPair{}, apperr.Dependency(err)
	}
	if err := m.store.SetRefreshToken(user.ID, refresh); err != nil {
		return TokenPair{}, apperr.Dependency(fmt.Errorf("persist refresh token: %w", err))
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Invalidate clears the user's stored refresh token. Clearing an already
// empty token is a no-op, so repeated logouts succeed.
func (m *SessionManager) Invalidate(userID string) error {
	if err := m.store.SetRefreshToken(userID, ""); err != nil {
		return apperr.Dependency(fmt.Errorf("clear refresh token: %w", err))
	}
	return nil
}

// ValidateRefresh checks a presented refresh token end to end: signature and
// expiry first, then an exact match against the token currently stored on the
// user record. A token that verifies but no longer matches has been
// superseded by a later rotation or logout and is reported as stale.
func (m *SessionManager) ValidateRefresh(token string) (models.User, error) {
	if token == "" {
		return models.User{}, apperr.Unauthenticatedf("refresh token is required")
	}
	userID, err := m.issuer.VerifyRefresh(token)
	if err != nil {
		return models.User{}, apperr.Unauthenticatedf("invalid or expired refresh token")
	}
	user, ok := m.store.GetUser(userID)
	if !ok {
		return models.User{}, apperr.NotFoundf("user not found")
	}
	if user.RefreshToken == "" || user.RefreshToken != token {
		return models.User{}, apperr.StaleTokenf("refresh token has been superseded")
	}
	return user, nil
}
