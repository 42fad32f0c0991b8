package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub/internal/middleware"
	"learnhub/internal/response"
	"learnhub/internal/service"
)

const msgBadCredentials = "The provided credentials are incorrect."

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	challenge, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Send(c, response.Response{
				Kind: response.KindUnauthenticated,
				Msg:  msgBadCredentials,
				Data: response.Field("email", msgBadCredentials),
			})
			return
		}
		h.internalError(c, err, "login failed")
		return
	}

	response.OK(c, "Please verify your email with the OTP sent", loginResponse{
		UserID:  challenge.UserID,
		Message: "OTP has been sent to your email",
	})
}

type verifyOtpRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"`
	Otp    string `json:"otp" binding:"required,len=6"`
}

func (h HandlerSet) VerifyOtp(c *gin.Context) {
	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	tokens, err := h.auth.VerifyOtp(c.Request.Context(), req.UserID, req.Otp)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredOtp):
			response.Send(c, response.Response{
				Kind:   response.KindValidation,
				Status: http.StatusBadRequest,
				Msg:    "Invalid or expired OTP",
				Data:   response.Field("otp", "Invalid or expired OTP."),
			})
		case errors.Is(err, service.ErrInactiveUser):
			response.Send(c, response.Response{Kind: response.KindInactiveUser})
		default:
			h.internalError(c, err, "verify otp failed")
		}
		return
	}

	response.OK(c, "Login successful", tokens)
}

type resendOtpRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

func (h HandlerSet) ResendOtp(c *gin.Context) {
	var req resendOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	err := h.auth.ResendOtp(c.Request.Context(), req.UserID)
	switch {
	case err == nil:
		response.OK(c, "OTP resent successfully", gin.H{"message": "OTP has been resent to your email"})
	case errors.Is(err, service.ErrRateLimited):
		response.Send(c, response.Response{
			Kind: response.KindTooManyRequests,
			Msg:  "Please wait before requesting another OTP",
			Data: []any{},
		})
	case errors.Is(err, service.ErrUserNotFound):
		response.Send(c, response.Response{
			Kind: response.KindValidation,
			Data: response.Field("user_id", "The selected user id is invalid."),
		})
	default:
		h.internalError(c, err, "resend otp failed")
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			response.Send(c, response.Response{
				Kind: response.KindUnauthenticated,
				Msg:  "Invalid or expired refresh token",
				Data: response.Field("refresh_token", "Invalid or expired refresh token."),
			})
		case errors.Is(err, service.ErrInactiveUser):
			response.Send(c, response.Response{Kind: response.KindInactiveUser})
		default:
			h.internalError(c, err, "refresh failed")
		}
		return
	}

	response.OK(c, "Token refreshed successfully", tokens)
}

func (h HandlerSet) Logout(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Send(c, response.Response{Kind: response.KindUnauthenticated})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), identity); err != nil {
		h.internalError(c, err, "logout failed")
		return
	}

	response.OK(c, "Logged out successfully", []any{})
}

func (h HandlerSet) internalError(c *gin.Context, err error, msg string) {
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	response.Send(c, response.Response{Kind: response.KindError})
}
