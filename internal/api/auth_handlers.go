package api

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"clipstream/internal/apperr"
	"clipstream/internal/auth"
	"clipstream/internal/models"
	"clipstream/internal/storage"
)

const maxUploadMemory = 32 << 20

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

type sessionResponse struct {
	User         userProfile `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// uploadedFile is one part pulled out of a multipart form.
type uploadedFile struct {
	data        []byte
	contentType string
	name        string
}

func readFormFile(r *http.Request, field string) (*uploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validationf("read %s upload", field).WithCause(err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Validationf("read %s upload", field).WithCause(err)
	}
	return &uploadedFile{
		data:        data,
		contentType: header.Header.Get("Content-Type"),
		name:        header.Filename,
	}, nil
}

// storeUpload pushes the file into media storage under a fresh key inside
// the given folder.
func (h *Handler) storeUpload(r *http.Request, folder string, file *uploadedFile) (models.MediaObject, error) {
	if file == nil {
		return models.MediaObject{}, nil
	}
	ext := strings.ToLower(path.Ext(file.name))
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
	object, err := h.Media.Upload(r.Context(), key, file.contentType, file.data)
	if err != nil {
		return models.MediaObject{}, apperr.Dependency(fmt.Errorf("upload %s: %w", folder, err))
	}
	h.recorder().UploadEvent(folder)
	return object, nil
}

// releaseMedia best-effort deletes a stored object. Failures are logged and
// swallowed; the referencing record is already gone or replaced.
func (h *Handler) releaseMedia(r *http.Request, key string) {
	if key == "" {
		return
	}
	if err := h.Media.Delete(r.Context(), key); err != nil {
		h.logger().Warn("delete stored object failed", "key", key, "error", err)
	}
}

// Register creates an account from a multipart form (username, email,
// fullName, password, optional avatar and cover files) and opens a session.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}

	var params storage.CreateUserParams
	var avatar, cover *uploadedFile
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, apperr.Validationf("invalid multipart form").WithCause(err))
			return
		}
		params = storage.CreateUserParams{
			Username: r.FormValue("username"),
			Email:    r.FormValue("email"),
			FullName: r.FormValue("fullName"),
			Password: r.FormValue("password"),
		}
		var err error
		if avatar, err = readFormFile(r, "avatar"); err != nil {
			writeError(w, err)
			return
		}
		if cover, err = readFormFile(r, "cover"); err != nil {
			writeError(w, err)
			return
		}
	} else {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			FullName string `json:"fullName"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		params = storage.CreateUserParams{
			Username: req.Username,
			Email:    req.Email,
			FullName: req.FullName,
			Password: req.Password,
		}
	}

	if len(params.Password) < 8 {
		writeError(w, apperr.Validationf("password must be at least 8 characters"))
		return
	}

	avatarObject, err := h.storeUpload(r, "avatars", avatar)
	if err != nil {
		writeError(w, err)
		return
	}
	coverObject, err := h.storeUpload(r, "covers", cover)
	if err != nil {
		h.releaseMedia(r, avatarObject.Key)
		writeError(w, err)
		return
	}
	params.Avatar = avatarObject
	params.Cover = coverObject

	user, err := h.Store.CreateUser(params)
	if err != nil {
		h.releaseMedia(r, avatarObject.Key)
		h.releaseMedia(r, coverObject.Key)
		writeError(w, err)
		return
	}

	pair, err := h.Sessions.Rotate(user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recorder().AuthEvent("register")
	h.setSessionCookies(w, r, pair.AccessToken, pair.RefreshToken)
	writeData(w, http.StatusCreated, sessionResponse{
		User:         newUserProfile(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "account created")
}

// Login verifies credentials (username or email plus password) and opens a
// session, superseding any refresh token issued earlier.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	user, err := h.Store.AuthenticateUser(identifier, req.Password)
	if err != nil {
		h.recorder().AuthEvent("login_failed")
		writeError(w, err)
		return
	}

	pair, err := h.Sessions.Rotate(user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recorder().AuthEvent("login")
	h.setSessionCookies(w, r, pair.AccessToken, pair.RefreshToken)
	writeData(w, http.StatusOK, sessionResponse{
		User:         newUserProfile(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "logged in")
}

// Refresh exchanges a valid refresh token for a fresh pair. The token is
// read from the request body when present, otherwise from the refreshToken
// cookie. A token superseded by a later rotation is rejected.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}

	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
			token = strings.TrimSpace(cookie.Value)
		}
	}

	user, err := h.Sessions.ValidateRefresh(token)
	if err != nil {
		h.recorder().AuthEvent("refresh_failed")
		writeError(w, err)
		return
	}

	pair, err := h.Sessions.Rotate(user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recorder().AuthEvent("refresh")
	h.setSessionCookies(w, r, pair.AccessToken, pair.RefreshToken)
	writeData(w, http.StatusOK, sessionResponse{
		User:         newUserProfile(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "session refreshed")
}

// Logout clears the stored refresh token and both cookies. Logging out twice
// is harmless.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := h.Sessions.Invalidate(user.ID); err != nil {
		writeError(w, err)
		return
	}
	h.recorder().AuthEvent("logout")
	h.clearSessionCookies(w, r)
	writeData(w, http.StatusOK, nil, "logged out")
}

// Session returns the authenticated account.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, newUserProfile(user), "current session")
}

// ChangePassword verifies the old password before storing the new one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, apperr.Validationf("password must be at least 8 characters"))
		return
	}
	// The context user carries no credential material, so the stored hash
	// is fetched fresh.
	stored, exists := h.Store.GetUser(user.ID)
	if !exists {
		writeError(w, apperr.Unauthenticatedf("account not found"))
		return
	}
	if err := auth.VerifyPassword(stored.PasswordHash, req.OldPassword); err != nil {
		writeError(w, apperr.Unauthenticatedf("invalid credentials"))
		return
	}
	if err := h.Store.SetUserPassword(user.ID, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "password changed")
}

// UpdateAccount patches fullName and email and returns the updated profile.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w, "PATCH")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.FullName == nil && req.Email == nil {
		writeError(w, apperr.Validationf("nothing to update"))
		return
	}
	updated, err := h.Store.UpdateUser(user.ID, storage.UserUpdate{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, newUserProfile(updated), "account updated")
}

// UpdateAvatar swaps the avatar image; UpdateCover the cover. The previous
// object is deleted best-effort once the record points at the new one.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars")
}

func (h *Handler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "cover", "covers")
}

func (h *Handler) updateImage(w http.ResponseWriter, r *http.Request, field, folder string) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w, "PATCH")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, apperr.Validationf("invalid multipart form").WithCause(err))
		return
	}
	file, err := readFormFile(r, field)
	if err != nil {
		writeError(w, err)
		return
	}
	if file == nil {
		writeError(w, apperr.Validationf("%s file is required", field))
		return
	}
	object, err := h.storeUpload(r, folder, file)
	if err != nil {
		writeError(w, err)
		return
	}

	update := storage.UserUpdate{}
	previousKey := ""
	if field == "avatar" {
		update.Avatar = &object
		previousKey = user.AvatarKey
	} else {
		update.Cover = &object
		previousKey = user.CoverKey
	}
	updated, err := h.Store.UpdateUser(user.ID, update)
	if err != nil {
		h.releaseMedia(r, object.Key)
		writeError(w, err)
		return
	}
	if previousKey != "" && previousKey != object.Key {
		h.releaseMedia(r, previousKey)
	}
	writeData(w, http.StatusOK, newUserProfile(updated), field+" updated")
}

// WatchHistoryList returns the caller's watch history, most recent first.
func (h *Handler) WatchHistoryList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	videos, total, err := h.Store.WatchHistory(user.ID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload("videos", h.videoViews(videos), page, limit, total), "watch history")
}

// LikedVideos returns the videos the caller has liked.
func (h *Handler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	videos, total, err := h.Store.ListLikedVideos(user.ID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload("videos", h.videoViews(videos), page, limit, total), "liked videos")
}

// ChannelProfile resolves a public channel page by username: profile fields
// plus subscriber count and, for authenticated callers, whether they are
// subscribed.
func (h *Handler) ChannelProfile(w http.ResponseWriter, r *http.Request, username string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, "GET")
		return
	}
	channel, ok := h.Store.FindUserByUsername(username)
	if !ok {
		writeError(w, apperr.NotFoundf("channel %q not found", username))
		return
	}
	payload := map[string]any{
		"channel":     newUserProfile(channel),
		"subscribers": h.Store.CountSubscribers(channel.ID),
	}
	if viewer, ok := UserFromContext(r.Context()); ok {
		payload["isSubscribed"] = h.Store.IsSubscribed(viewer.ID, channel.ID)
	}
	writeData(w, http.StatusOK, payload, "channel profile")
}
