package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"clipstream/internal/apperr"
	"clipstream/internal/models"
)

type contextKey string

const userContextKey contextKey = "authenticatedUser"

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// ContextWithUser stores the authenticated user in the provided context.
func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from context if present.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// ExtractToken resolves the access token for the request: the Authorization
// bearer header wins, then the accessToken cookie.
func ExtractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// AuthenticateRequest validates the access token on the request and resolves
// the account it names.
func (h *Handler) AuthenticateRequest(r *http.Request) (models.User, error) {
	token := ExtractToken(r)
	if token == "" {
		return models.User{}, apperr.Unauthenticatedf("missing access token")
	}
	claims, err := h.Sessions.Issuer().VerifyAccess(token)
	if err != nil {
		return models.User{}, apperr.Unauthenticatedf("invalid or expired access token")
	}
	user, exists := h.Store.GetUser(claims.Subject)
	if !exists {
		return models.User{}, apperr.Unauthenticatedf("account not found")
	}
	// Credential material never travels on the request context; handlers
	// that need it fetch it from the store.
	user.PasswordHash = ""
	user.RefreshToken = ""
	return user, nil
}

func (h *Handler) requireAuthenticatedUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Unauthenticatedf("authentication required"))
		return models.User{}, false
	}
	return user, true
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		for _, p := range strings.Split(proto, ",") {
			if strings.EqualFold(strings.TrimSpace(p), "https") {
				return true
			}
		}
	}
	return false
}

func setAuthCookie(w http.ResponseWriter, r *http.Request, name, token string, ttl time.Duration) {
	if token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl).UTC(),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
	})
}

// setSessionCookies attaches both token cookies with lifetimes matching the
// token TTLs.
func (h *Handler) setSessionCookies(w http.ResponseWriter, r *http.Request, access, refresh string) {
	issuer := h.Sessions.Issuer()
	setAuthCookie(w, r, accessTokenCookie, access, issuer.AccessTTL())
	setAuthCookie(w, r, refreshTokenCookie, refresh, issuer.RefreshTTL())
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w, r, accessTokenCookie)
	clearAuthCookie(w, r, refreshTokenCookie)
}
