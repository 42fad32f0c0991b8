package handlers

import (
	"time"

	"learnhub/internal/models"
)

const dateLayout = "2006-01-02"

type userResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	MobileNo   *string   `json:"mobile_no"`
	FCMID      *string   `json:"fcm_id"`
	Role       string    `json:"role"`
	ImageURL   *string   `json:"image_url"`
	Address    *string   `json:"address"`
	DOB        *string   `json:"dob"`
	Gender     *string   `json:"gender"`
	SchoolName *string   `json:"school_name"`
	RollNo     *string   `json:"roll_no"`
	Status     int       `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newUserResponse(u models.User) userResponse {
	var dob *string
	if u.DOB != nil {
		s := u.DOB.Format(dateLayout)
		dob = &s
	}
	return userResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		MobileNo:   u.MobileNo,
		FCMID:      u.FCMID,
		Role:       string(u.Role),
		ImageURL:   u.ImageURL,
		Address:    u.Address,
		DOB:        dob,
		Gender:     u.Gender,
		SchoolName: u.SchoolName,
		RollNo:     u.RollNo,
		Status:     int(u.Status),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func newUserResponses(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
