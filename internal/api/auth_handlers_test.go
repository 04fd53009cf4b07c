package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type sessionData struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func registerAccount(t *testing.T, handler *Handler, username string) sessionData {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "Test " + username,
		"password": "supersecret",
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var session sessionData
	decodeData(t, env, &session)
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected both tokens in register response")
	}
	return session
}

func TestRegisterSetsSessionCookies(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"username": "casey",
		"email":    "casey@example.com",
		"fullName": "Casey Test",
		"password": "supersecret",
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	var sawAccess, sawRefresh bool
	for _, cookie := range cookies {
		switch cookie.Name {
		case "accessToken":
			sawAccess = true
		case "refreshToken":
			sawRefresh = true
		}
		if !cookie.HttpOnly {
			t.Fatalf("expected HttpOnly cookie %s", cookie.Name)
		}
	}
	if !sawAccess || !sawRefresh {
		t.Fatalf("expected both session cookies, got %v", cookies)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"username": "casey",
		"email":    "casey@example.com",
		"password": "short",
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Register(rec, req)

	expectFailure(t, rec, http.StatusBadRequest)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	handler, _ := newTestHandler(t)
	registerAccount(t, handler, "casey")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"username": "Casey",
		"email":    "other@example.com",
		"password": "supersecret",
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Register(rec, req)

	expectFailure(t, rec, http.StatusBadRequest)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	handler, _ := newTestHandler(t)
	registerAccount(t, handler, "casey")

	for _, body := range []map[string]string{
		{"username": "casey", "password": "supersecret"},
		{"email": "casey@example.com", "password": "supersecret"},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
		handler.Login(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 login, got %d (body: %s)", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		var session sessionData
		decodeData(t, env, &session)
		if session.User.Username != "casey" {
			t.Fatalf("expected casey in session, got %q", session.User.Username)
		}
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	handler, _ := newTestHandler(t)
	registerAccount(t, handler, "casey")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"username": "casey",
		"password": "wrong-password",
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Login(rec, req)

	expectFailure(t, rec, http.StatusUnauthorized)
}

func TestRefreshRotationSupersedesPreviousToken(t *testing.T) {
	handler, _ := newTestHandler(t)
	first := registerAccount(t, handler, "casey")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": first.RefreshToken,
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 refresh, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var second sessionData
	decodeData(t, decodeEnvelope(t, rec), &second)
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("expected a new refresh token after rotation")
	}

	// Replaying the superseded token must fail.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": first.RefreshToken,
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Refresh(rec, req)
	expectFailure(t, rec, http.StatusUnauthorized)

	// The latest token still works.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": second.RefreshToken,
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Refresh(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected latest token to refresh, got %d", rec.Code)
	}
}

func TestRefreshReadsCookieWhenBodyEmpty(t *testing.T) {
	handler, _ := newTestHandler(t)
	session := registerAccount(t, handler, "casey")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: session.RefreshToken})
	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected cookie-based refresh to succeed, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	handler, store := newTestHandler(t)
	session := registerAccount(t, handler, "casey")
	user, _ := store.FindUserByUsername("casey")

	rec := httptest.NewRecorder()
	handler.Logout(rec, authedRequest(user, http.MethodPost, "/api/auth/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 logout, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": session.RefreshToken,
	}))
	req.Header.Set("Content-Type", "application/json")
	handler.Refresh(rec, req)
	expectFailure(t, rec, http.StatusUnauthorized)
}

func TestChangePasswordVerifiesCurrentPassword(t *testing.T) {
	handler, store := newTestHandler(t)
	registerAccount(t, handler, "casey")
	user, _ := store.FindUserByUsername("casey")

	rec := httptest.NewRecorder()
	handler.ChangePassword(rec, authedRequest(user, http.MethodPost, "/api/me/password", jsonBody(t, map[string]string{
		"oldPassword": "wrong-password",
		"newPassword": "evenmoresecret",
	})))
	expectFailure(t, rec, http.StatusUnauthorized)

	rec = httptest.NewRecorder()
	handler.ChangePassword(rec, authedRequest(user, http.MethodPost, "/api/me/password", jsonBody(t, map[string]string{
		"oldPassword": "supersecret",
		"newPassword": "evenmoresecret",
	})))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 password change, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	if _, err := store.AuthenticateUser("casey", "evenmoresecret"); err != nil {
		t.Fatalf("expected new password to authenticate: %v", err)
	}
	if _, err := store.AuthenticateUser("casey", "supersecret"); err == nil {
		t.Fatalf("expected old password to be rejected")
	}
}

func TestAuthenticatedRequestCarriesNoSecrets(t *testing.T) {
	handler, _ := newTestHandler(t)
	session := registerAccount(t, handler, "casey")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	user, err := handler.AuthenticateRequest(req)
	if err != nil {
		t.Fatalf("AuthenticateRequest: %v", err)
	}
	if user.PasswordHash != "" || user.RefreshToken != "" {
		t.Fatalf("expected credential fields stripped from resolved user, got %+v", user)
	}

	// Handlers needing the stored hash fetch it themselves: a password
	// change still verifies the old password against the store.
	rec := httptest.NewRecorder()
	handler.ChangePassword(rec, authedRequest(user, http.MethodPost, "/api/me/password", jsonBody(t, map[string]string{
		"oldPassword": "supersecret",
		"newPassword": "evenmoresecret",
	})))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 password change, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestUpdateAccountRequiresChanges(t *testing.T) {
	handler, store := newTestHandler(t)
	user := createTestUser(t, store, "casey")

	rec := httptest.NewRecorder()
	handler.UpdateAccount(rec, authedRequest(user, http.MethodPatch, "/api/me/account", jsonBody(t, map[string]string{})))
	expectFailure(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	handler.UpdateAccount(rec, authedRequest(user, http.MethodPatch, "/api/me/account", jsonBody(t, map[string]string{
		"fullName": "Casey Renamed",
	})))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 account update, got %d", rec.Code)
	}
	var profile struct {
		FullName string `json:"fullName"`
	}
	decodeData(t, decodeEnvelope(t, rec), &profile)
	if profile.FullName != "Casey Renamed" {
		t.Fatalf("expected updated name, got %q", profile.FullName)
	}
}

func TestSessionReturnsProfileWithoutSecrets(t *testing.T) {
	handler, store := newTestHandler(t)
	registerAccount(t, handler, "casey")
	user, _ := store.FindUserByUsername("casey")

	rec := httptest.NewRecorder()
	handler.Session(rec, authedRequest(user, http.MethodGet, "/api/me", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var raw map[string]any
	decodeData(t, decodeEnvelope(t, rec), &raw)
	if _, leaked := raw["passwordHash"]; leaked {
		t.Fatalf("password hash leaked in session payload")
	}
	if _, leaked := raw["refreshToken"]; leaked {
		t.Fatalf("refresh token leaked in session payload")
	}
}
