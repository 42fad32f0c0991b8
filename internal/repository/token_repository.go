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
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrAccessTokenNotFound  = errors.New("access token not found")
)

// SessionPair is the replacement credential set for a user.
type SessionPair struct {
	Access  models.AccessToken
	Refresh models.RefreshToken
}

type TokenRepository struct {
	db database.Conn
}

func NewTokenRepository(db database.Conn) *TokenRepository {
	return &TokenRepository{db: db}
}

// ReplaceSession revokes every access and refresh token of the user and stores
// pair, all in one transaction under the user row lock.
func (r *TokenRepository) ReplaceSession(ctx context.Context, userID int64, pair SessionPair) error {
	return database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		return replaceSession(ctx, tx, userID, pair)
	})
}

// RotateRefresh consumes the unexpired refresh token with the given hash and,
// in the same transaction, replaces the owner's session with the pair built by
// next. If next fails nothing is consumed. The owner row is locked before the
// token is deleted, matching the lock order of ReplaceSession.
func (r *TokenRepository) RotateRefresh(
	ctx context.Context,
	hash []byte,
	now time.Time,
	next func(user models.User) (SessionPair, error),
) (models.User, error) {
	var owner models.User
	err := database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		var userID int64
		err := tx.QueryRow(ctx,
			`SELECT user_id FROM refresh_tokens WHERE token_hash = $1 AND expires_at > $2`,
			hash, now,
		).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRefreshTokenNotFound
			}
			return fmt.Errorf("find refresh token: %w", err)
		}

		user, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
		if err != nil {
			return err
		}

		// a concurrent rotation may have consumed the token while we waited on the lock
		var consumed int64
		err = tx.QueryRow(ctx,
			`DELETE FROM refresh_tokens WHERE token_hash = $1 AND user_id = $2 AND expires_at > $3 RETURNING id`,
			hash, userID, now,
		).Scan(&consumed)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRefreshTokenNotFound
			}
			return fmt.Errorf("consume refresh token: %w", err)
		}

		pair, err := next(user)
		if err != nil {
			return err
		}
		if err := replaceSession(ctx, tx, user.ID, pair); err != nil {
			return err
		}
		owner = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return owner, nil
}

func replaceSession(ctx context.Context, tx database.DBTX, userID int64, pair SessionPair) error {
	if err := revokeAll(ctx, tx, userID); err != nil {
		return err
	}

	const insertAccess = `
		INSERT INTO access_tokens (id, user_id, name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, insertAccess,
		pair.Access.ID,
		userID,
		pair.Access.Name,
		pair.Access.ExpiresAt,
		pair.Access.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert access token: %w", err)
	}

	const insertRefresh = `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertRefresh,
		userID,
		pair.Refresh.TokenHash,
		pair.Refresh.ExpiresAt,
		pair.Refresh.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// RevokeAll deletes every access and refresh token of the user. Revoking a
// user with no tokens is not an error.
func (r *TokenRepository) RevokeAll(ctx context.Context, userID int64) error {
	return database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		return revokeAll(ctx, tx, userID)
	})
}

func revokeAll(ctx context.Context, tx database.DBTX, userID int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM access_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("revoke access tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindAccessToken(ctx context.Context, id string) (models.AccessToken, error) {
	const query = `
		SELECT id, user_id, name, expires_at, last_used_at, created_at
		FROM access_tokens
		WHERE id = $1
	`
	var token models.AccessToken
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&token.ID,
		&token.UserID,
		&token.Name,
		&token.ExpiresAt,
		&token.LastUsedAt,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AccessToken{}, ErrAccessTokenNotFound
		}
		return models.AccessToken{}, err
	}
	return token, nil
}

func (r *TokenRepository) TouchAccessToken(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE access_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// PurgeExpired removes refresh and access token rows that expired before cutoff.
func (r *TokenRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	err := database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		for _, table := range []string{"refresh_tokens", "access_tokens"} {
			cmd, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE expires_at < $1`, cutoff)
			if err != nil {
				return fmt.Errorf("purge %s: %w", table, err)
			}
			total += cmd.RowsAffected()
		}
		return nil
	})
	return total, err
}
