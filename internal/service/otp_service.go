package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"learnhub/internal/config"
	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/security"
)

type OtpService struct {
	store    OtpStore
	notifier Notifier
	cfg      config.OTPConfig
	metrics  AuthMetrics
	log      zerolog.Logger

	now     func() time.Time
	entropy io.Reader
}

func NewOtpService(store OtpStore, notifier Notifier, cfg config.OTPConfig, metrics AuthMetrics, log zerolog.Logger) *OtpService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &OtpService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
		entropy:  rand.Reader,
	}
}

// Issue replaces any outstanding challenge of user with a fresh code and
// queues it for delivery.
func (s *OtpService) Issue(ctx context.Context, user models.User) (string, error) {
	return s.issue(ctx, user, 0, "login")
}

// Resend behaves like Issue unless the newest challenge is younger than the
// resend cooldown, in which case it returns ErrRateLimited and sends nothing.
func (s *OtpService) Resend(ctx context.Context, user models.User) (string, error) {
	return s.issue(ctx, user, s.cfg.ResendCooldown, "resend")
}

func (s *OtpService) issue(ctx context.Context, user models.User, cooldown time.Duration, reason string) (string, error) {
	code, err := security.GenerateOTP(s.entropy)
	if err != nil {
		return "", err
	}

	now := s.now()
	challenge := models.OtpChallenge{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}

	if _, err := s.store.Replace(ctx, challenge, cooldown); err != nil {
		if errors.Is(err, repository.ErrOtpCooldown) {
			return "", ErrRateLimited
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("store otp: %w", err)
	}
	s.metrics.RecordOtpIssued(reason)

	if err := s.notifier.SendLoginCode(ctx, user, code, s.cfg.TTL); err != nil {
		s.log.Warn().Err(err).Str("user_id", strconv.FormatInt(user.ID, 10)).Msg("queue login code failed")
	}

	return code, nil
}

// Verify consumes the user's pending challenge when code matches it.
func (s *OtpService) Verify(ctx context.Context, userID int64, code string) error {
	if !security.ValidOTPFormat(code) {
		s.metrics.RecordOtpVerify("invalid")
		return ErrInvalidOrExpiredOtp
	}

	if _, err := s.store.Consume(ctx, userID, code, s.now()); err != nil {
		if errors.Is(err, repository.ErrOtpNotFound) {
			s.metrics.RecordOtpVerify("invalid")
			return ErrInvalidOrExpiredOtp
		}
		return fmt.Errorf("consume otp: %w", err)
	}

	s.metrics.RecordOtpVerify("ok")
	return nil
}
