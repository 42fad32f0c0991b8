package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/security"
)

// LoginChallenge is returned once a password check passes; the caller must
// follow up with the emailed code for UserID.
type LoginChallenge struct {
	UserID int64
}

// AuthService drives login through the one-time code step to an issued
// session. All state lives in persisted challenge and token rows.
type AuthService struct {
	users    UserFinder
	verifier *security.CredentialVerifier
	otp      *OtpService
	sessions *SessionService
	metrics  AuthMetrics
	log      zerolog.Logger
}

func NewAuthService(
	users UserFinder,
	verifier *security.CredentialVerifier,
	otp *OtpService,
	sessions *SessionService,
	metrics AuthMetrics,
	log zerolog.Logger,
) *AuthService {
	if verifier == nil {
		verifier = security.DefaultCredentialVerifier()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &AuthService{
		users:    users,
		verifier: verifier,
		otp:      otp,
		sessions: sessions,
		metrics:  metrics,
		log:      log,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (LoginChallenge, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.RecordLogin("rejected")
			return LoginChallenge{}, ErrInvalidCredentials
		}
		return LoginChallenge{}, fmt.Errorf("find user: %w", err)
	}

	scheme, ok := s.verifier.Match(password, user.Password)
	if !ok {
		s.metrics.RecordLogin("rejected")
		return LoginChallenge{}, ErrInvalidCredentials
	}
	if scheme != "argon2id" {
		s.log.Debug().Str("user_id", strconv.FormatInt(user.ID, 10)).Str("scheme", scheme).Msg("legacy credential accepted")
	}

	if _, err := s.otp.Issue(ctx, user); err != nil {
		return LoginChallenge{}, err
	}

	s.metrics.RecordLogin("challenged")
	return LoginChallenge{UserID: user.ID}, nil
}

// VerifyOtp consumes the user's pending code and issues a session, revoking
// any session the user held before.
func (s *AuthService) VerifyOtp(ctx context.Context, userID int64, code string) (Tokens, error) {
	if err := s.otp.Verify(ctx, userID, code); err != nil {
		return Tokens{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Tokens{}, ErrInvalidOrExpiredOtp
		}
		return Tokens{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive() {
		return Tokens{}, ErrInactiveUser
	}

	return s.sessions.IssueSession(ctx, user)
}

// ResendOtp issues a new code for an active user unless the cooldown since
// the last one has not elapsed.
func (s *AuthService) ResendOtp(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive() {
		return ErrUserNotFound
	}

	_, err = s.otp.Resend(ctx, user)
	return err
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	return s.sessions.Refresh(ctx, refreshToken)
}

func (s *AuthService) Logout(ctx context.Context, identity Identity) error {
	return s.sessions.Logout(ctx, identity.UserID)
}

// Authenticate is the bearer check used by the HTTP middleware.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (models.User, Identity, error) {
	return s.sessions.Authenticate(ctx, bearer)
}
