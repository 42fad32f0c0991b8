package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"learnhub/internal/config"
	"learnhub/internal/ids"
	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/security"
)

const tokenTypeBearer = "Bearer"

// Tokens is the credential triple handed to a client after verify-otp or refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Identity is an authenticated caller as resolved by Authenticate.
type Identity struct {
	UserID  int64
	Role    models.UserRole
	TokenID string
}

type SessionService struct {
	tokens  TokenStore
	users   UserFinder
	cfg     config.SecurityConfig
	metrics AuthMetrics
	log     zerolog.Logger

	now func() time.Time
}

func NewSessionService(tokens TokenStore, users UserFinder, cfg config.SecurityConfig, metrics AuthMetrics, log zerolog.Logger) *SessionService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &SessionService{
		tokens:  tokens,
		users:   users,
		cfg:     cfg,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// IssueSession revokes every credential the user holds and mints a single
// fresh access/refresh pair.
func (s *SessionService) IssueSession(ctx context.Context, user models.User) (Tokens, error) {
	pair, tokens, err := s.mint(user)
	if err != nil {
		return Tokens{}, err
	}
	if err := s.tokens.ReplaceSession(ctx, user.ID, pair); err != nil {
		return Tokens{}, fmt.Errorf("store session: %w", err)
	}
	return tokens, nil
}

// Refresh exchanges a refresh token for a new session. The presented token is
// consumed in the same transaction that stores its replacement.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		s.metrics.RecordRefresh("rejected")
		return Tokens{}, ErrUnauthenticated
	}

	var tokens Tokens
	_, err := s.tokens.RotateRefresh(ctx, security.HashRefreshToken(refreshToken), s.now(), func(user models.User) (repository.SessionPair, error) {
		if !user.IsActive() {
			return repository.SessionPair{}, ErrInactiveUser
		}
		pair, minted, err := s.mint(user)
		if err != nil {
			return repository.SessionPair{}, err
		}
		tokens = minted
		return pair, nil
	})
	switch {
	case err == nil:
		s.metrics.RecordRefresh("ok")
		return tokens, nil
	case errors.Is(err, repository.ErrRefreshTokenNotFound), errors.Is(err, repository.ErrUserNotFound):
		s.metrics.RecordRefresh("rejected")
		return Tokens{}, ErrUnauthenticated
	case errors.Is(err, ErrInactiveUser):
		s.metrics.RecordRefresh("inactive")
		return Tokens{}, ErrInactiveUser
	default:
		return Tokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}
}

// Logout revokes all access and refresh tokens of userID. Repeating it is a no-op.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user. The JWT alone is not
// enough: its access_tokens row must still exist.
func (s *SessionService) Authenticate(ctx context.Context, bearer string) (models.User, Identity, error) {
	claims, err := security.ParseAccessToken(bearer, s.cfg.JWTAccessSecret)
	if err != nil {
		return models.User{}, Identity{}, ErrUnauthenticated
	}

	now := s.now()
	record, err := s.tokens.FindAccessToken(ctx, claims.TokenID())
	if err != nil {
		if errors.Is(err, repository.ErrAccessTokenNotFound) {
			return models.User{}, Identity{}, ErrUnauthenticated
		}
		return models.User{}, Identity{}, fmt.Errorf("find access token: %w", err)
	}
	if record.UserID != claims.UserID || !record.ExpiresAt.After(now) {
		return models.User{}, Identity{}, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, Identity{}, ErrUnauthenticated
		}
		return models.User{}, Identity{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive() {
		return models.User{}, Identity{}, ErrInactiveUser
	}

	if err := s.tokens.TouchAccessToken(ctx, record.ID, now); err != nil {
		s.log.Warn().Err(err).Str("token_id", record.ID).Msg("touch access token failed")
	}

	return user, Identity{UserID: user.ID, Role: user.Role, TokenID: record.ID}, nil
}

func (s *SessionService) mint(user models.User) (repository.SessionPair, Tokens, error) {
	now := s.now()
	tokenID := ids.New()

	access, err := security.GenerateAccessToken(s.cfg.JWTAccessSecret, tokenID, user.ID, string(user.Role), now, s.cfg.JWTAccessTTL)
	if err != nil {
		return repository.SessionPair{}, Tokens{}, err
	}
	refresh, hash, err := security.GenerateRefreshToken()
	if err != nil {
		return repository.SessionPair{}, Tokens{}, err
	}

	pair := repository.SessionPair{
		Access: models.AccessToken{
			ID:        tokenID,
			UserID:    user.ID,
			Name:      "auth_token",
			ExpiresAt: now.Add(s.cfg.JWTAccessTTL),
			CreatedAt: now,
		},
		Refresh: models.RefreshToken{
			UserID:    user.ID,
			TokenHash: hash,
			ExpiresAt: now.Add(s.cfg.RefreshTTL),
			CreatedAt: now,
		},
	}
	return pair, Tokens{AccessToken: access, RefreshToken: refresh, TokenType: tokenTypeBearer}, nil
}
