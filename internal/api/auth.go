package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// DefaultResetTTL is how long a password reset token stays valid.
const DefaultResetTTL = time.Hour

// forgotPasswordMessage is returned whether or not the address is registered.
const forgotPasswordMessage = "If that email is registered, a password reset link has been sent."

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	TokenTTL  time.Duration
	ResetTTL  time.Duration
	ResetURL  string
	Mailer    Mailer
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type verifyResponse struct {
	User *model.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = model.NormalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	errs := model.FieldErrors{}
	if err := model.ValidateEmail(req.Email); err != nil {
		errs.Add("email", err.Error())
	}
	switch {
	case req.Username == "":
		errs.Add("username", "username is required")
	case len(req.Username) > model.MaxUsernameLength:
		errs.Add("username", "username is too long")
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		errs.Add("password", err.Error())
	}
	if !errs.Empty() {
		jsonValidation(w, errs)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Email, string(hash))
	if errors.Is(err, store.ErrConflict) {
		jsonError(w, http.StatusConflict, "email or username is already registered")
		return
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, h.TokenTTL, user)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user registered", "user", user.Username)
	jsonResponse(w, http.StatusCreated, model.AuthResult{Token: token, User: *user})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = model.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, h.TokenTTL, user)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username)
	jsonResponse(w, http.StatusOK, model.AuthResult{Token: token, User: *user})
}

// Logout handles POST /api/auth/logout by revoking the current token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expiresAt := time.Now().Add(h.tokenTTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	slog.Info("user logged out", "user", claims.Username)
	writeEnvelope(w, http.StatusOK, envelope{Success: true, Message: "logged out"})
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}

	jsonResponse(w, http.StatusOK, verifyResponse{User: user})
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = model.NormalizeEmail(req.Email)
	if err := model.ValidateEmail(req.Email); err != nil {
		jsonValidation(w, model.FieldErrors{"email": {err.Error()}})
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonMessage(w, http.StatusOK, forgotPasswordMessage)
		return
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create reset token")
		return
	}

	ttl := h.ResetTTL
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	if err := store.CreatePasswordReset(r.Context(), h.DB, user.ID, hash, time.Now().Add(ttl)); err != nil {
		slog.Error("failed to store reset token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create reset token")
		return
	}

	if err := h.mailer().SendPasswordReset(r.Context(), user, h.resetLink(token)); err != nil {
		slog.Error("failed to send password reset", "user", user.Username, "error", err)
	}

	jsonMessage(w, http.StatusOK, forgotPasswordMessage)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	errs := model.FieldErrors{}
	if strings.TrimSpace(req.Token) == "" {
		errs.Add("token", "token is required")
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		errs.Add("newPassword", err.Error())
	}
	if !errs.Empty() {
		jsonValidation(w, errs)
		return
	}

	userID, err := store.ConsumePasswordReset(r.Context(), h.DB, auth.HashResetToken(strings.TrimSpace(req.Token)), time.Now())
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusBadRequest, "invalid or expired reset token")
		return
	}
	if err != nil {
		slog.Error("failed to consume reset token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !h.setPassword(w, r, userID, req.NewPassword) {
		return
	}

	slog.Info("password reset", "user_id", userID)
	jsonMessage(w, http.StatusOK, "password has been reset")
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" {
		jsonValidation(w, model.FieldErrors{"currentPassword": {"current password is required"}})
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonValidation(w, model.FieldErrors{"newPassword": {err.Error()}})
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonValidation(w, model.FieldErrors{"currentPassword": {"current password is incorrect"}})
		return
	}

	if !h.setPassword(w, r, user.ID, req.NewPassword) {
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	jsonMessage(w, http.StatusOK, "password updated")
}

// setPassword hashes and stores a new password, writing an error response on failure.
func (h *AuthHandler) setPassword(w http.ResponseWriter, r *http.Request, userID int64, password string) bool {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return false
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, userID, string(hash)); err != nil {
		slog.Error("failed to update password", "user_id", userID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update password")
		return false
	}
	return true
}

func (h *AuthHandler) tokenTTL() time.Duration {
	if h.TokenTTL <= 0 {
		return auth.DefaultTokenTTL
	}
	return h.TokenTTL
}

func (h *AuthHandler) mailer() Mailer {
	if h.Mailer == nil {
		return LogMailer{}
	}
	return h.Mailer
}

// resetLink appends the token to the configured reset page URL.
func (h *AuthHandler) resetLink(token string) string {
	if h.ResetURL == "" {
		return token
	}
	u, err := url.Parse(h.ResetURL)
	if err != nil {
		return h.ResetURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
