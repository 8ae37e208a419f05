package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// UserHandler implements account and profile endpoints.
type UserHandler struct {
	Users   repositories.UserRepository
	Tokens  TokenIssuer
	Media   media.Host
	Cleanup CleanupQueue
	Limiter RateLimiter
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, tooManyRequests())
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, badRequest("invalid multipart payload"))
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	password := r.FormValue("password")

	if fullName == "" || email == "" || username == "" || password == "" {
		respondError(ctx, w, badRequest("fullName, email, username and password are required"))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, badRequest("invalid email address"))
		return
	}
	if len(password) < 8 {
		respondError(ctx, w, badRequest("password must be at least 8 characters"))
		return
	}

	avatarFile, avatarName, err := formFile(r, "avatar", true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer closeQuietly(avatarFile)

	avatar, err := h.Media.Upload(ctx, "avatars", avatarName, avatarFile)
	if err != nil {
		respondError(ctx, w, internal("failed to upload avatar", err))
		return
	}

	var coverImage *models.MediaAsset
	if coverFile, coverName, err := formFile(r, "coverImage", false); err == nil && coverFile != nil {
		defer closeQuietly(coverFile)
		asset, err := h.Media.Upload(ctx, "covers", coverName, coverFile)
		if err != nil {
			respondError(ctx, w, internal("failed to upload cover image", err))
			return
		}
		coverImage = &asset
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		respondError(ctx, w, internal("failed to secure password", err))
		return
	}

	user, err := h.Users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       &avatar,
		CoverImage:   coverImage,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, conflict("username or email already registered"))
			return
		}
		respondError(ctx, w, internal("failed to create account", err))
		return
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID.Hex(), "username", user.Username)
	respondJSON(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, tooManyRequests())
		return
	}

	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("invalid request body"))
		return
	}

	identifier := strings.TrimSpace(strings.ToLower(req.Email))
	if identifier == "" {
		identifier = strings.TrimSpace(strings.ToLower(req.Username))
	}
	if identifier == "" || req.Password == "" {
		respondError(ctx, w, badRequest("email or username and password are required"))
		return
	}

	user, err := h.Users.FindByLogin(ctx, identifier)
	if err != nil {
		respondError(ctx, w, unauthorized("invalid credentials"))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(ctx, w, unauthorized("invalid credentials"))
		return
	}

	tokens, err := h.issueSession(r, w, user)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("user logged in", "userId", user.ID.Hex())
	respondJSON(ctx, w, http.StatusOK, loginResponse{User: user, SessionTokens: tokens}, "logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Users.SetRefreshToken(ctx, user.ID, ""); err != nil {
		respondError(ctx, w, internal("failed to end session", err))
		return
	}

	clearAuthCookies(w)
	respondJSON(ctx, w, http.StatusOK, nil, "logged out successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The presented token
// must both verify and match the one stored on the user doc, so a rotated-out
// token cannot be replayed.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := refreshTokenFromRequest(r)
	if token == "" {
		respondError(ctx, w, unauthorized("refresh token is required"))
		return
	}

	userID, err := h.Tokens.VerifyRefresh(token)
	if err != nil {
		respondError(ctx, w, unauthorized("invalid refresh token"))
		return
	}

	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		respondError(ctx, w, unauthorized("invalid refresh token"))
		return
	}

	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		respondError(ctx, w, unauthorized("invalid refresh token"))
		return
	}
	if user.RefreshToken == "" || user.RefreshToken != token {
		respondError(ctx, w, unauthorized("refresh token has been rotated"))
		return
	}

	tokens, err := h.issueSession(r, w, user)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, tokens, "session refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("invalid request body"))
		return
	}
	if req.NewPassword == "" || len(req.NewPassword) < 8 {
		respondError(ctx, w, badRequest("new password must be at least 8 characters"))
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.OldPassword); err != nil {
		respondError(ctx, w, badRequest("old password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(ctx, w, internal("failed to secure password", err))
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		respondError(ctx, w, internal("failed to change password", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("invalid request body"))
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" && req.Email == "" {
		respondError(ctx, w, badRequest("fullName or email is required"))
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondError(ctx, w, badRequest("invalid email address"))
			return
		}
	}

	updated, err := h.Users.UpdateAccount(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, conflict("email already registered"))
			return
		}
		respondError(ctx, w, internal("failed to update account", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "account updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers")
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, folder string) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, badRequest("invalid multipart payload"))
		return
	}

	file, filename, err := formFile(r, field, true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer closeQuietly(file)

	asset, err := h.Media.Upload(ctx, folder, filename, file)
	if err != nil {
		respondError(ctx, w, internal("failed to upload "+field, err))
		return
	}

	var (
		updated  models.User
		previous *models.MediaAsset
	)
	if field == "avatar" {
		previous = user.Avatar
		updated, err = h.Users.UpdateAvatar(ctx, user.ID, asset)
	} else {
		previous = user.CoverImage
		updated, err = h.Users.UpdateCoverImage(ctx, user.ID, asset)
	}
	if err != nil {
		respondError(ctx, w, internal("failed to update "+field, err))
		return
	}

	if previous != nil && previous.PublicID != "" && h.Cleanup != nil {
		if err := h.Cleanup.AssetReplaced(ctx, previous.PublicID); err != nil {
			logging.FromContext(ctx).Warn("queue old asset cleanup", "asset", previous.PublicID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, updated, field+" updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, badRequest("username is required"))
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("channel not found"))
			return
		}
		respondError(ctx, w, internal("failed to fetch channel profile", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile, "channel profile fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	history, err := h.Users.WatchHistory(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, internal("failed to fetch watch history", err))
		return
	}
	if history == nil {
		history = []repositories.WatchHistoryEntry{}
	}

	respondJSON(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

// issueSession creates a token pair, persists the refresh token and sets the
// auth cookies.
func (h UserHandler) issueSession(r *http.Request, w http.ResponseWriter, user models.User) (models.SessionTokens, error) {
	tokens, err := h.Tokens.Issue(user.ID.Hex(), user.Username)
	if err != nil {
		return models.SessionTokens{}, internal("failed to create session", err)
	}
	if err := h.Users.SetRefreshToken(r.Context(), user.ID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, internal("failed to persist session", err)
	}
	setAuthCookies(w, tokens)
	return tokens, nil
}

type loginResponse struct {
	User models.User `json:"user"`
	models.SessionTokens
}

const refreshTokenCookie = "refreshToken"

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

func setAuthCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
