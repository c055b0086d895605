package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chatrelay/backend/internal/auth"
	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/model"
	"chatrelay/backend/internal/repository"
)

// ResetMailer delivers password reset links. Satisfied by mail.Sender.
type ResetMailer interface {
	SendPasswordReset(to, resetLink string) error
}

// ResetTokenStore mints and consumes single-use reset tokens.
// Satisfied by auth.ResetStore.
type ResetTokenStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
}

// AuthService handles account creation, credential verification, and the
// password reset flow.
type AuthService struct {
	repo        repository.Repository
	tokens      *auth.TokenManager
	resets      ResetTokenStore
	mailer      ResetMailer
	frontendURL string
}

func NewAuthService(repo repository.Repository, tokens *auth.TokenManager, resets ResetTokenStore, mailer ResetMailer, frontendURL string) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, resets: resets, mailer: mailer, frontendURL: frontendURL}
}

// Signup registers a new account and returns a signed access token.
func (s *AuthService) Signup(ctx context.Context, email, password string) (string, *model.User, error) {
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return "", nil, fmt.Errorf("%w: email already registered", app_errors.ErrConflict)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("could not check existing user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("could not hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return "", nil, fmt.Errorf("could not create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("could not issue token: %w", err)
	}
	slog.Info("New user registered", "user_id", user.ID)
	return token, user, nil
}

// Login verifies credentials and returns a signed access token. Wrong email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid email or password", app_errors.ErrAuth)
		}
		return "", nil, fmt.Errorf("could not fetch user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, fmt.Errorf("%w: invalid email or password", app_errors.ErrAuth)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("could not issue token: %w", err)
	}
	return token, user, nil
}

// VerifyToken resolves an access token to its user.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", app_errors.ErrAuth)
		}
		return nil, fmt.Errorf("could not fetch user: %w", err)
	}
	return user, nil
}

// ForgotPassword mails a time-boxed reset link. An unknown email is treated
// as success so the endpoint cannot be used to probe for registered addresses.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("could not fetch user: %w", err)
	}

	token, err := s.resets.Create(ctx, user.ID)
	if err != nil {
		return err
	}
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	if err := s.mailer.SendPasswordReset(user.Email, resetLink); err != nil {
		return err
	}
	slog.Info("Password reset email sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and stores a new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.resets.Consume(ctx, token)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("could not hash password: %w", err)
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user not found", app_errors.ErrAuth)
		}
		return fmt.Errorf("could not update password: %w", err)
	}
	slog.Info("Password reset completed", "user_id", userID)
	return nil
}
