package models

import "time"

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleUser    UserRole = "user"
	UserRoleManager UserRole = "manager"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleUser, UserRoleManager:
		return true
	}
	return false
}

type UserStatus int

const (
	UserStatusInactive UserStatus = 0
	UserStatusActive   UserStatus = 1
)

func (s UserStatus) Valid() bool {
	return s == UserStatusInactive || s == UserStatusActive
}

// User is the account record. Password holds whatever credential format the
// row was written with: argon2id for new rows, legacy digests for migrated ones.
type User struct {
	ID         int64
	Email      string
	MobileNo   *string
	Password   string
	FCMID      *string
	Name       string
	Role       UserRole
	ImageURL   *string
	Address    *string
	DOB        *time.Time
	Gender     *string
	SchoolName *string
	RollNo     *string
	Status     UserStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
