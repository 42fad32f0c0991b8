package service

import (
	"context"
	"time"

	"learnhub/internal/models"
	"learnhub/internal/repository"
)

type UserFinder interface {
	FindActiveByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type OtpStore interface {
	Replace(ctx context.Context, challenge models.OtpChallenge, cooldown time.Duration) (models.OtpChallenge, error)
	Consume(ctx context.Context, userID int64, code string, now time.Time) (models.OtpChallenge, error)
}

type TokenStore interface {
	ReplaceSession(ctx context.Context, userID int64, pair repository.SessionPair) error
	RotateRefresh(ctx context.Context, hash []byte, now time.Time, next func(models.User) (repository.SessionPair, error)) (models.User, error)
	RevokeAll(ctx context.Context, userID int64) error
	FindAccessToken(ctx context.Context, id string) (models.AccessToken, error)
	TouchAccessToken(ctx context.Context, id string, at time.Time) error
}

// Notifier delivers login codes out of band. Implementations should queue
// rather than send inline.
type Notifier interface {
	SendLoginCode(ctx context.Context, user models.User, code string, ttl time.Duration) error
}

// AuthMetrics receives auth outcomes; labels are short snake_case words.
type AuthMetrics interface {
	RecordLogin(outcome string)
	RecordOtpIssued(reason string)
	RecordOtpVerify(outcome string)
	RecordRefresh(outcome string)
}

type NopMetrics struct{}

func (NopMetrics) RecordLogin(string)     {}
func (NopMetrics) RecordOtpIssued(string) {}
func (NopMetrics) RecordOtpVerify(string) {}
func (NopMetrics) RecordRefresh(string)   {}
