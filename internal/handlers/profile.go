package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub/internal/middleware"
	"learnhub/internal/response"
	"learnhub/internal/service"
)

type profileRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=255"`
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	MobileNo   *string `json:"mobile_no" binding:"omitempty,max=20"`
	Address    *string `json:"address"`
	DOB        *string `json:"dob" binding:"omitempty,datetime=2006-01-02"`
	Gender     *string `json:"gender"`
	SchoolName *string `json:"school_name"`
	RollNo     *string `json:"roll_no"`
	ImageURL   *string `json:"image_url"`
}

func (r profileRequest) toUpdate() (service.ProfileUpdate, error) {
	dob, err := parseDate(r.DOB)
	if err != nil {
		return service.ProfileUpdate{}, err
	}
	return service.ProfileUpdate{
		Name:       r.Name,
		Email:      r.Email,
		MobileNo:   r.MobileNo,
		Address:    r.Address,
		DOB:        dob,
		Gender:     r.Gender,
		SchoolName: r.SchoolName,
		RollNo:     r.RollNo,
		ImageURL:   r.ImageURL,
	}, nil
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Send(c, response.Response{Kind: response.KindUnauthenticated})
		return
	}
	response.OK(c, "Profile retrieved successfully", newUserResponse(user))
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Send(c, response.Response{Kind: response.KindUnauthenticated})
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		response.Validation(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), identity.UserID, update)
	if err != nil {
		h.userError(c, err, "update profile failed")
		return
	}
	response.OK(c, "Profile updated successfully", newUserResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Send(c, response.Response{Kind: response.KindUnauthenticated})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), identity.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrCurrentPasswordIncorrect) {
			response.Send(c, response.Response{
				Kind: response.KindValidation,
				Msg:  "Current password is incorrect",
				Data: response.Field("current_password", "Current password is incorrect"),
			})
			return
		}
		h.userError(c, err, "change password failed")
		return
	}
	response.OK(c, "Password changed successfully", []any{})
}

func (h HandlerSet) UploadProfileImage(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Send(c, response.Response{Kind: response.KindUnauthenticated})
		return
	}

	limit := h.cfg.Storage.MaxImageBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	file, err := c.FormFile("image")
	if err != nil {
		response.Send(c, response.Response{
			Kind: response.KindValidation,
			Data: response.Field("image", "The image field is required."),
		})
		return
	}
	if file.Size > limit {
		response.Send(c, response.Response{
			Kind: response.KindValidation,
			Data: response.Field("image", fmt.Sprintf("The image may not be greater than %d kilobytes.", limit/1024)),
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.internalError(c, err, "open upload failed")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		h.internalError(c, err, "read upload failed")
		return
	}

	user, err := h.users.UploadProfileImage(c.Request.Context(), identity.UserID, data)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedImage) {
			response.Send(c, response.Response{
				Kind: response.KindValidation,
				Data: response.Field("image", "The image must be a file of type: jpeg, png, gif, webp."),
			})
			return
		}
		h.userError(c, err, "upload profile image failed")
		return
	}
	response.OK(c, "Profile image updated successfully", newUserResponse(user))
}

// userError maps the shared user-service failures onto envelopes.
func (h HandlerSet) userError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.Send(c, response.Response{Kind: response.KindNotFound, Msg: "User not found"})
	case errors.Is(err, service.ErrEmailTaken):
		response.Send(c, response.Response{
			Kind: response.KindValidation,
			Data: response.Field("email", "The email has already been taken."),
		})
	default:
		h.internalError(c, err, msg)
	}
}
