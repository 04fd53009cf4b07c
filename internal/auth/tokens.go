package auth

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clipstream/internal/models"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 10 * 24 * time.Hour
)

// ErrSigningSecretMissing indicates the issuer was constructed without a
// signing secret. This is a startup-class misconfiguration, not a condition
// request handlers should ever observe.
var ErrSigningSecretMissing = errors.New("token signing secret is not configured")

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// malformed payload. Callers surface a single generic message regardless of
// the underlying reason.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims are the denormalised profile fields carried by an access
// token alongside the registered claim set.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwtlib.RegisteredClaims
}

type refreshClaims struct {
	jwtlib.RegisteredClaims
}

// TokenConfig configures the issuer. Secrets are mandatory; TTLs fall back
// to one hour (access) and ten days (refresh) when unset.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenIssuer mints and verifies the HS256 access/refresh token pair. Access
// tokens are stateless; refresh tokens are additionally matched against the
// copy persisted on the user record by the SessionManager.
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer validates the configuration once at construction so a
// missing secret fails process startup instead of individual requests.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, ErrSigningSecretMissing
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTokenTTL
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// AccessTTL exposes the configured access token lifetime for cookie expiry.
func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.cfg.AccessTTL
}

// RefreshTTL exposes the configured refresh token lifetime for cookie expiry.
func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.cfg.RefreshTTL
}

// IssueAccess signs a short-lived token carrying the user's id and
// denormalised profile fields.
func (i *TokenIssuer) IssueAccess(user models.User) (string, error) {
	now := NowTimeFunc()
	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(i.cfg.AccessTTL)),
			ID:        uuid.New().String(),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.cfg.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefresh signs a long-lived token carrying the user's id only, with a
// secret distinct from the access secret.
func (i *TokenIssuer) IssueRefresh(user models.User) (string, error) {
	now := NowTimeFunc()
	claims := refreshClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(i.cfg.RefreshTTL)),
			ID:        uuid.New().String(),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.cfg.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccess validates signature and expiry and returns the embedded
// claims. All failures collapse to ErrInvalidToken.
func (i *TokenIssuer) VerifyAccess(tokenString string) (AccessClaims, error) {
	var claims AccessClaims
	if err := i.verify(tokenString, &claims, i.cfg.AccessSecret); err != nil {
		return AccessClaims{}, err
	}
	if claims.Subject == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh validates signature and expiry against the refresh secret
// and returns the embedded user id.
func (i *TokenIssuer) VerifyRefresh(tokenString string) (string, error) {
	var claims refreshClaims
	if err := i.verify(tokenString, &claims, i.cfg.RefreshSecret); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (i *TokenIssuer) verify(tokenString string, claims jwtlib.Claims, secret []byte) error {
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
