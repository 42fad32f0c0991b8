package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnhub/internal/middleware"
	"learnhub/internal/models"
	"learnhub/internal/response"
	"learnhub/internal/service"
)

type addUserRequest struct {
	Name       string  `json:"name" binding:"required,max=255"`
	Email      string  `json:"email" binding:"required,email,max=255"`
	Password   string  `json:"password" binding:"required,min=8"`
	Role       string  `json:"role" binding:"required,oneof=admin user manager"`
	Status     *int    `json:"status" binding:"omitempty,oneof=0 1"`
	MobileNo   *string `json:"mobile_no" binding:"omitempty,max=20"`
	FCMID      *string `json:"fcm_id"`
	ImageURL   *string `json:"image_url"`
	Address    *string `json:"address"`
	DOB        *string `json:"dob" binding:"omitempty,datetime=2006-01-02"`
	Gender     *string `json:"gender"`
	SchoolName *string `json:"school_name"`
	RollNo     *string `json:"roll_no"`
}

type editUserRequest struct {
	profileRequest
	Password *string `json:"password" binding:"omitempty,min=8"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin user manager"`
	Status   *int    `json:"status" binding:"omitempty,oneof=0 1"`
	FCMID    *string `json:"fcm_id"`
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "list users failed")
		return
	}
	response.OK(c, "Users retrieved successfully", newUserResponses(users))
}

func (h HandlerSet) AddUser(c *gin.Context) {
	var req addUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}
	dob, err := parseDate(req.DOB)
	if err != nil {
		response.Validation(c, err)
		return
	}

	in := service.NewUser{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       models.UserRole(req.Role),
		MobileNo:   req.MobileNo,
		FCMID:      req.FCMID,
		ImageURL:   req.ImageURL,
		Address:    req.Address,
		DOB:        dob,
		Gender:     req.Gender,
		SchoolName: req.SchoolName,
		RollNo:     req.RollNo,
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		in.Status = &status
	}

	user, err := h.users.AddUser(c.Request.Context(), in)
	if err != nil {
		h.userError(c, err, "add user failed")
		return
	}
	response.OK(c, "User created successfully", newUserResponse(user))
}

func (h HandlerSet) EditUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var req editUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}
	profile, err := req.toUpdate()
	if err != nil {
		response.Validation(c, err)
		return
	}

	in := service.UserUpdate{ProfileUpdate: profile, Password: req.Password, FCMID: req.FCMID}
	if req.Role != nil {
		role := models.UserRole(*req.Role)
		in.Role = &role
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		in.Status = &status
	}

	user, err := h.users.EditUser(c.Request.Context(), id, in)
	if err != nil {
		h.userError(c, err, "edit user failed")
		return
	}
	response.OK(c, "User updated successfully", newUserResponse(user))
}

func (h HandlerSet) RemoveUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Send(c, response.Response{Kind: response.KindUnauthenticated})
		return
	}

	if err := h.users.RemoveUser(c.Request.Context(), actor.UserID, id); err != nil {
		if errors.Is(err, service.ErrCannotRemoveSelf) {
			response.Send(c, response.Response{Kind: response.KindUnauthorized, Msg: "You cannot remove your own account"})
			return
		}
		h.userError(c, err, "remove user failed")
		return
	}
	response.OK(c, "User removed successfully", []any{})
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Send(c, response.Response{Kind: response.KindNotFound, Msg: "User not found"})
		return 0, false
	}
	return id, true
}
