package repository

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"learnhub/internal/models"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var userColumnNames = []string{
	"id", "email", "mobile_no", "password", "fcm_id", "name", "role", "image_url", "address",
	"dob", "gender", "school_name", "roll_no", "status", "created_at", "updated_at",
}

func userRows(users ...models.User) *pgxmock.Rows {
	rows := pgxmock.NewRows(userColumnNames)
	for _, u := range users {
		rows.AddRow(
			u.ID, u.Email, u.MobileNo, u.Password, u.FCMID, u.Name, u.Role, u.ImageURL, u.Address,
			u.DOB, u.Gender, u.SchoolName, u.RollNo, u.Status, u.CreatedAt, u.UpdatedAt,
		)
	}
	return rows
}

func sampleUser(id int64) models.User {
	ts := time.Date(2025, 5, 20, 13, 46, 19, 0, time.UTC)
	return models.User{
		ID:        id,
		Email:     "a@x.com",
		Password:  "5ebe2294ecd0e0f08eab7690d2a6ee69",
		Name:      "Asha",
		Role:      models.UserRoleUser,
		Status:    models.UserStatusActive,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}
