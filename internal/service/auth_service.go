package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/repository"
)

type AuthService struct {
	users      repository.UserRepository
	carts      *CartService
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewAuthService(users repository.UserRepository, carts *CartService, sessionTTL time.Duration, logger *zap.Logger) *AuthService {
	if sessionTTL == 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		carts:      carts,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (s *AuthService) Signup(ctx context.Context, email, name, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login checks the credentials, opens a session and folds the visitor's
// anonymous cart (if any) into the user's cart.
func (s *AuthService) Login(ctx context.Context, email, password string, anonymous domain.Owner) (*domain.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	if mergeErr := s.carts.MergeIntoUser(ctx, anonymous, user.ID); mergeErr != nil {
		// The login itself succeeded; losing the merge is logged, not fatal.
		s.logger.Warn("anonymous cart merge failed on login",
			zap.Int64("user_id", user.ID),
			zap.Error(mergeErr))
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return session, nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile changes the account's display name and phone number.
// Email stays fixed; it doubles as the login identifier.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name, phone string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Phone = phone
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", zap.Int64("user_id", userID))
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to a user id; expired sessions
// count as unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	session, err := s.users.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return 0, ErrNotAuthenticated
		}
		return 0, err
	}

	if session.Expired(time.Now()) {
		_ = s.users.DeleteSession(ctx, token)
		return 0, ErrNotAuthenticated
	}

	return session.UserID, nil
}
