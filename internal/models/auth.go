package models

import "time"

// OtpChallenge is a login code bound to one user. A challenge is usable while
// Verified is false and ExpiresAt is in the future.
type OtpChallenge struct {
	ID        int64
	UserID    int64
	Code      string
	Verified  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c OtpChallenge) Usable(now time.Time) bool {
	return !c.Verified && c.ExpiresAt.After(now)
}

// RefreshToken only ever carries the sha256 of the secret handed to the client.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AccessToken is the server-side record behind a bearer JWT; the JWT id
// names the row. Deleting the row revokes the token.
type AccessToken struct {
	ID         string
	UserID     int64
	Name       string
	ExpiresAt  time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}
