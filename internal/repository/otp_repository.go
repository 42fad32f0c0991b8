package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"learnhub/internal/database"
	"learnhub/internal/models"
)

var (
	ErrOtpNotFound = errors.New("otp challenge not found")
	ErrOtpCooldown = errors.New("otp requested too recently")
)

type OtpRepository struct {
	db database.Conn
}

func NewOtpRepository(db database.Conn) *OtpRepository {
	return &OtpRepository{db: db}
}

// Replace deletes every challenge of the user and stores challenge in one
// transaction, holding the user row lock. With a positive cooldown it fails
// with ErrOtpCooldown when the newest existing challenge is younger than that.
func (r *OtpRepository) Replace(ctx context.Context, challenge models.OtpChallenge, cooldown time.Duration) (models.OtpChallenge, error) {
	err := database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		if err := lockUser(ctx, tx, challenge.UserID); err != nil {
			return err
		}

		if cooldown > 0 {
			var latest time.Time
			err := tx.QueryRow(ctx,
				`SELECT created_at FROM otp_challenges WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
				challenge.UserID,
			).Scan(&latest)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
			case err != nil:
				return fmt.Errorf("latest otp: %w", err)
			case challenge.CreatedAt.Sub(latest) < cooldown:
				return ErrOtpCooldown
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM otp_challenges WHERE user_id = $1`, challenge.UserID); err != nil {
			return fmt.Errorf("delete otps: %w", err)
		}

		const insert = `
			INSERT INTO otp_challenges (user_id, code, verified, expires_at, created_at)
			VALUES ($1, $2, FALSE, $3, $4)
			RETURNING id
		`
		if err := tx.QueryRow(ctx, insert,
			challenge.UserID,
			challenge.Code,
			challenge.ExpiresAt,
			challenge.CreatedAt,
		).Scan(&challenge.ID); err != nil {
			return fmt.Errorf("insert otp: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.OtpChallenge{}, err
	}

	challenge.Verified = false
	return challenge, nil
}

// Consume flips the matching pending challenge to verified. Wrong, already
// verified and expired codes all yield ErrOtpNotFound.
func (r *OtpRepository) Consume(ctx context.Context, userID int64, code string, now time.Time) (models.OtpChallenge, error) {
	const query = `
		UPDATE otp_challenges
		SET verified = TRUE
		WHERE id = (
			SELECT id FROM otp_challenges
			WHERE user_id = $1 AND code = $2 AND verified = FALSE AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING id, user_id, code, verified, expires_at, created_at
	`

	var c models.OtpChallenge
	err := r.db.QueryRow(ctx, query, userID, code, now).Scan(
		&c.ID,
		&c.UserID,
		&c.Code,
		&c.Verified,
		&c.ExpiresAt,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OtpChallenge{}, ErrOtpNotFound
		}
		return models.OtpChallenge{}, err
	}
	return c, nil
}

// PurgeExpired removes challenges whose expiry is before cutoff.
func (r *OtpRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM otp_challenges WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func lockUser(ctx context.Context, tx database.DBTX, userID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}
