package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/auth"
	"github.com/ukydev/engineeye/internal/db"
	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/middleware"
	"github.com/ukydev/engineeye/internal/models"
	"github.com/ukydev/engineeye/internal/validation"
)

// AuthHandler handles registration, login and the caller's profile.
type AuthHandler struct {
	authService *auth.Service
	users       db.UserCollection
	validate    *validation.Validator
	metrics     *metrics.Metrics
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, users db.UserCollection, v *validation.Validator, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		validate:    v,
		metrics:     m,
	}
}

// Routes registers the auth and profile routes.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Post("/profile/password", h.ChangePassword)
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.Username = models.NormalizeUsername(req.Username)
	if err := h.validate.Struct(req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	ctx := r.Context()
	if err := ensureUnique(ctx, "username", req.Username, "", h.users.FindUserByUsername); err != nil {
		apperr.Write(w, r, err)
		return
	}
	if err := ensureUnique(ctx, "email", req.Email, "", h.users.FindUserByEmail); err != nil {
		apperr.Write(w, r, err)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		apperr.Write(w, r, apperr.Internal("hash password", err))
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	id, err := h.users.InsertUser(ctx, user)
	if err != nil {
		apperr.Write(w, r, userStoreError("insert user", err))
		return
	}
	user.ID = id

	resp, err := h.session(ctx, &user, "")
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	log.WithFields(log.Fields{"user_id": id.Hex(), "username": user.Username}).Info("User registered")
	writeJSON(w, http.StatusCreated, resp)
}

// Login signs a user in with email and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.validate.Struct(req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		apperr.Write(w, r, apperr.StoreUnavailable("find user", err))
		return
	}
	if err != nil || !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		h.metrics.AuthFailure("bad_credentials")
		apperr.Write(w, r, apperr.Unauthenticated(auth.ErrInvalidCredentials.Error()))
		return
	}

	resp, err := h.session(r.Context(), user, "")
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new session. Each refresh token
// can be redeemed once.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	ctx := r.Context()
	var user *models.User
	userID, err := auth.RefreshTokenUser(req.RefreshToken)
	if err == nil {
		user, err = h.users.FindUserByID(ctx, userID)
		if err != nil && !errors.Is(err, db.ErrNotFound) && !errors.Is(err, db.ErrInvalidID) {
			apperr.Write(w, r, apperr.StoreUnavailable("find user", err))
			return
		}
	}
	if err != nil || !h.authService.CheckRefreshToken(req.RefreshToken, user) {
		h.refreshRejected(w, r)
		return
	}

	resp, err := h.session(ctx, user, user.RefreshTokenHash)
	if errors.Is(err, errRefreshUsed) {
		h.refreshRejected(w, r)
		return
	}
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	log.WithField("user_id", user.ID.Hex()).Info("Session refreshed")
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) refreshRejected(w http.ResponseWriter, r *http.Request) {
	h.metrics.AuthFailure("invalid_refresh_token")
	apperr.Write(w, r, apperr.Unauthenticated(auth.ErrInvalidRefresh.Error()))
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	var req models.ProfileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	req.Username = models.NormalizeUsername(req.Username)
	req.ProfileImage = strings.TrimSpace(req.ProfileImage)
	if err := h.validate.Struct(req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	id := user.ID.Hex()
	if req.Username != user.Username {
		if err := ensureUnique(r.Context(), "username", req.Username, id, h.users.FindUserByUsername); err != nil {
			apperr.Write(w, r, err)
			return
		}
	}

	user.Username = req.Username
	user.Bio = strings.TrimSpace(req.Bio)
	user.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	user.Location = strings.TrimSpace(req.Location)
	user.ProfileImage = req.ProfileImage
	if err := h.users.UpdateUser(r.Context(), id, *user); err != nil {
		apperr.Write(w, r, userStoreError("update user", err))
		return
	}

	log.WithFields(log.Fields{"user_id": id, "username": user.Username}).Info("Profile updated")
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	var req models.PasswordChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		h.metrics.AuthFailure("bad_current_password")
		apperr.Write(w, r, apperr.ValidationFields("current password is incorrect",
			map[string]string{"current_password": "is incorrect"}))
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		apperr.Write(w, r, apperr.Internal("hash password", err))
		return
	}
	user.PasswordHash = hash
	user.RefreshTokenHash = ""
	user.RefreshExpiresAt = nil
	if err := h.users.UpdateUser(r.Context(), user.ID.Hex(), *user); err != nil {
		apperr.Write(w, r, userStoreError("update user", err))
		return
	}

	log.WithField("user_id", user.ID.Hex()).Info("Password changed")
	writeJSON(w, http.StatusOK, message{Message: "Password changed successfully"})
}

func (h *AuthHandler) currentUser(r *http.Request) (*models.User, error) {
	who := middleware.IdentityFromContext(r.Context())
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to see your profile")
	}
	user, err := h.users.FindUserByID(r.Context(), who.UserID)
	if err != nil {
		return nil, userStoreError("find user", err)
	}
	return user, nil
}

var errRefreshUsed = errors.New("refresh token already used")

// session issues an access token and a new refresh token for user. When
// current is set, the new refresh token only replaces that stored hash.
func (h *AuthHandler) session(ctx context.Context, user *models.User, current string) (*models.LoginResponse, error) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return nil, apperr.Internal("generate token", err)
	}
	refresh, err := h.authService.GenerateRefreshToken(user.ID.Hex())
	if err != nil {
		return nil, apperr.Internal("generate refresh token", err)
	}
	err = h.users.SetRefreshToken(ctx, user.ID.Hex(), current, refresh.Hash, &refresh.ExpiresAt)
	switch {
	case errors.Is(err, db.ErrNotFound) && current != "":
		return nil, errRefreshUsed
	case err != nil:
		return nil, userStoreError("store refresh token", err)
	}
	return &models.LoginResponse{Token: token, RefreshToken: refresh.Token, User: *user}, nil
}

// ensureUnique fails with Conflict when value is taken by a user other than
// selfID.
func ensureUnique(ctx context.Context, field, value, selfID string, find func(context.Context, string) (*models.User, error)) error {
	existing, err := find(ctx, value)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil
	case err != nil:
		return apperr.StoreUnavailable("find user", err)
	case existing.ID.Hex() == selfID:
		return nil
	default:
		return apperr.Conflict("this " + field + " is already taken")
	}
}

func userStoreError(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrDuplicate):
		return apperr.Conflict("username or email is already taken")
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrInvalidID):
		return apperr.NotFound("user not found")
	default:
		return apperr.StoreUnavailable(op, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
