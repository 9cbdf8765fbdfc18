package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

const (
	revokedKeyPrefix = "auth:revoked:"
	resetKeyPrefix   = "auth:reset:"
)

// RegisterParams carries the fields collected at sign-up.
type RegisterParams struct {
	Email     string
	Password  string
	Name      string
	Username  string
	BirthDate *time.Time
	Gender    string
}

// Service is the in-process identity provider: sign-up, sign-in, sign-out,
// password reset and credential updates. Tokens are stateless JWTs; logout
// and resets go through short-lived redis keys.
type Service struct {
	users    repositories.UserRepository
	tokens   *TokenManager
	rdb      *redis.Client
	resetTTL time.Duration
}

// NewService constructs the identity service.
func NewService(users repositories.UserRepository, tokens *TokenManager, rdb *redis.Client, resetTTL time.Duration) *Service {
	return &Service{users: users, tokens: tokens, rdb: rdb, resetTTL: resetTTL}
}

// Register creates the account and signs an initial token.
func (s *Service) Register(ctx context.Context, params RegisterParams) (models.User, string, error) {
	if len(params.Password) < 8 {
		return models.User{}, "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", err
	}

	user, err := s.users.Create(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		PasswordHash: string(hash),
		Name:         params.Name,
		Username:     params.Username,
		BirthDate:    params.BirthDate,
		Gender:       params.Gender,
	})
	if err != nil {
		return models.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Login verifies the credentials and signs a token.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Logout denylists the token's jti until the token would have expired.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKeyPrefix+claims.TokenID, "1", ttl).Err()
}

// Authenticate validates a raw token and returns the user id it names.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (string, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return "", err
	}
	revoked, err := s.rdb.Exists(ctx, revokedKeyPrefix+claims.TokenID).Result()
	if err != nil {
		return "", err
	}
	if revoked > 0 {
		return "", ErrTokenRevoked
	}
	return claims.UserID, nil
}

// CreatePasswordReset stores a one-time reset token for the account. The
// token is returned to the caller for delivery; whether the email exists is
// not revealed through the error.
func (s *Service) CreatePasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := s.rdb.Set(ctx, resetKeyPrefix+token, user.ID, s.resetTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	key := resetKeyPrefix + token
	userID, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	return s.rdb.Del(ctx, key).Err()
}

// UpdateEmail changes the account email after re-checking the password.
func (s *Service) UpdateEmail(ctx context.Context, userID, password, newEmail string) error {
	if err := s.verifyPassword(ctx, userID, password); err != nil {
		return err
	}
	return s.users.UpdateEmail(ctx, userID, strings.ToLower(strings.TrimSpace(newEmail)))
}

// UpdatePassword rotates the password after verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID, current, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	if err := s.verifyPassword(ctx, userID, current); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, string(hash))
}

func (s *Service) verifyPassword(ctx context.Context, userID, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
