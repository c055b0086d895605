package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/interfaces"
)

// AuthHandler handles HTTP requests for signup, login, and password reset.
type AuthHandler struct {
	service interfaces.AuthService
}

func NewAuthHandler(svc interfaces.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// SignupRequest is the DTO for account creation.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the DTO for credential verification.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the DTO for requesting a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the DTO for completing a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// TokenResponse carries a freshly issued access token and its user.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// UserResponse is the public view of a user row.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleSignup godoc
// @Summary      Register a new account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  SignupRequest  true  "Email and password"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /v1/auth/signup [post]
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	token, user, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        UserResponse{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt},
	})
}

// HandleLogin godoc
// @Summary      Login with email and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  TokenResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /v1/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        UserResponse{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt},
	})
}

// HandleMe godoc
// @Summary      Get the current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /v1/auth/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	respondWithJSON(w, http.StatusOK, UserResponse{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt})
}

// HandleLogout godoc
// @Summary      Logout
// @Description  Tokens are stateless; the client discards its copy. This endpoint exists for completeness.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "logged out"})
}

// HandleForgotPassword godoc
// @Summary      Request a password reset link
// @Description  Always answers 200 so the endpoint cannot be used to probe for registered addresses.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  ForgotPasswordRequest  true  "Account email"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /v1/auth/forgot-password [post]
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "reset email sent if the account exists"})
}

// HandleResetPassword godoc
// @Summary      Complete a password reset
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  ResetPasswordRequest  true  "Reset token and new password"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /v1/auth/reset-password [post]
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "password updated"})
}
