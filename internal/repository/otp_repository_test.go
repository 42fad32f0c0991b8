package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/models"
)

var otpNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func pendingChallenge() models.OtpChallenge {
	return models.OtpChallenge{
		UserID:    7,
		Code:      "004217",
		ExpiresAt: otpNow.Add(10 * time.Minute),
		CreatedAt: otpNow,
	}
}

func expectLock(mock pgxmock.PgxPoolIface, userID int64) {
	mock.ExpectQuery("SELECT id FROM users WHERE id").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(userID))
}

func TestOtpRepositoryReplaceDeletesThenInserts(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectBegin()
	expectLock(mock, 7)
	mock.ExpectExec("DELETE FROM otp_challenges WHERE user_id").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectQuery("INSERT INTO otp_challenges").
		WithArgs(int64(7), "004217", otpNow.Add(10*time.Minute), otpNow).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mock.ExpectCommit()

	got, err := repo.Replace(context.Background(), pendingChallenge(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(31), got.ID)
	assert.False(t, got.Verified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpRepositoryReplaceCooldown(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectBegin()
	expectLock(mock, 7)
	mock.ExpectQuery("SELECT created_at FROM otp_challenges").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(otpNow.Add(-90 * time.Second)))
	mock.ExpectRollback()

	_, err := repo.Replace(context.Background(), pendingChallenge(), 2*time.Minute)
	assert.ErrorIs(t, err, ErrOtpCooldown)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpRepositoryReplaceAfterCooldown(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectBegin()
	expectLock(mock, 7)
	mock.ExpectQuery("SELECT created_at FROM otp_challenges").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(otpNow.Add(-2 * time.Minute)))
	mock.ExpectExec("DELETE FROM otp_challenges").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery("INSERT INTO otp_challenges").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(32)))
	mock.ExpectCommit()

	_, err := repo.Replace(context.Background(), pendingChallenge(), 2*time.Minute)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpRepositoryReplaceNoPreviousChallenge(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectBegin()
	expectLock(mock, 7)
	mock.ExpectQuery("SELECT created_at FROM otp_challenges").
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("DELETE FROM otp_challenges").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("INSERT INTO otp_challenges").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	_, err := repo.Replace(context.Background(), pendingChallenge(), 2*time.Minute)
	require.NoError(t, err)
}

func TestOtpRepositoryReplaceUnknownUser(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Replace(context.Background(), pendingChallenge(), 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOtpRepositoryConsume(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectQuery("UPDATE otp_challenges").
		WithArgs(int64(7), "004217", otpNow).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "code", "verified", "expires_at", "created_at"}).
			AddRow(int64(31), int64(7), "004217", true, otpNow.Add(10*time.Minute), otpNow))

	got, err := repo.Consume(context.Background(), 7, "004217", otpNow)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, int64(31), got.ID)
}

func TestOtpRepositoryConsumeNoMatch(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectQuery("UPDATE otp_challenges").
		WithArgs(int64(7), "999999", otpNow).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Consume(context.Background(), 7, "999999", otpNow)
	assert.ErrorIs(t, err, ErrOtpNotFound)
}

func TestOtpRepositoryPurgeExpired(t *testing.T) {
	mock := newMock(t)
	repo := NewOtpRepository(mock)

	mock.ExpectExec("DELETE FROM otp_challenges WHERE expires_at").
		WithArgs(otpNow).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	n, err := repo.PurgeExpired(context.Background(), otpNow)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
