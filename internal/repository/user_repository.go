package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"learnhub/internal/database"
	"learnhub/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `id, email, mobile_no, password, fcm_id, name, role, image_url, address, dob, gender, school_name, roll_no, status, created_at, updated_at`

type UserRepository struct {
	db database.Conn
}

func NewUserRepository(db database.Conn) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.MobileNo,
		&user.Password,
		&user.FCMID,
		&user.Name,
		&user.Role,
		&user.ImageURL,
		&user.Address,
		&user.DOB,
		&user.Gender,
		&user.SchoolName,
		&user.RollNo,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			email, mobile_no, password, fcm_id, name, role, image_url, address, dob, gender, school_name, roll_no, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, query,
		user.Email,
		user.MobileNo,
		user.Password,
		user.FCMID,
		user.Name,
		user.Role,
		user.ImageURL,
		user.Address,
		user.DOB,
		user.Gender,
		user.SchoolName,
		user.RollNo,
		user.Status,
	)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapUniqueViolation(err)
	}
	return created, nil
}

// FindActiveByEmail matches case-insensitively and only returns active accounts.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND status = $2`
	return scanUser(r.db.QueryRow(ctx, query, email, models.UserStatusActive))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update writes every mutable column of user, including the stored credential.
func (r *UserRepository) Update(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		UPDATE users SET
			email = $2, mobile_no = $3, password = $4, fcm_id = $5, name = $6, role = $7,
			image_url = $8, address = $9, dob = $10, gender = $11, school_name = $12, roll_no = $13,
			status = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.MobileNo,
		user.Password,
		user.FCMID,
		user.Name,
		user.Role,
		user.ImageURL,
		user.Address,
		user.DOB,
		user.Gender,
		user.SchoolName,
		user.RollNo,
		user.Status,
	)
	updated, err := scanUser(row)
	if err != nil {
		return models.User{}, mapUniqueViolation(err)
	}
	return updated, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, credential string) error {
	const query = `UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, credential)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error {
	const query = `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EmailTaken reports whether another account (not excludeID) already uses email.
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}
