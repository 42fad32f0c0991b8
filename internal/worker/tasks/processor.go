package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"learnhub/internal/mail"
	"learnhub/internal/queue"
)

type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Purger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Processor executes tasks read from the outbound stream.
type Processor struct {
	logger    zerolog.Logger
	sender    MailSender
	otps      Purger
	tokens    Purger
	retention time.Duration
	now       func() time.Time
}

func NewProcessor(logger zerolog.Logger, sender MailSender, otps, tokens Purger, retention time.Duration) *Processor {
	return &Processor{
		logger:    logger,
		sender:    sender,
		otps:      otps,
		tokens:    tokens,
		retention: retention,
		now:       time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskLoginOtp:
		return p.handleLoginOtp(ctx, task)
	case queue.TaskPurgeExpired:
		return p.handlePurge(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleLoginOtp(ctx context.Context, task queue.Task) error {
	var payload mail.LoginCodePayload
	if err := task.Decode(&payload); err != nil {
		return err
	}
	if payload.Email == "" || payload.Code == "" {
		return fmt.Errorf("%w: login_otp without recipient or code", queue.ErrMalformedTask)
	}

	if err := p.sender.Send(ctx, mail.LoginCodeMessage(payload)); err != nil {
		return err
	}
	p.logger.Info().Int64("user_id", payload.UserID).Msg("login code sent")
	return nil
}

func (p *Processor) handlePurge(ctx context.Context) error {
	cutoff := p.now().Add(-p.retention)

	otps, err := p.otps.PurgeExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge otp challenges: %w", err)
	}
	tokens, err := p.tokens.PurgeExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge tokens: %w", err)
	}

	p.logger.Info().
		Time("cutoff", cutoff).
		Int64("otp_challenges", otps).
		Int64("tokens", tokens).
		Msg("expired rows purged")
	return nil
}
