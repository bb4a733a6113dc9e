package controller

import (
	"errors"
	"neet_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the response envelope.
func respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, util.ErrValidation):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Unauthorized(ctx, "Invalid credentials")
	case errors.Is(err, util.ErrTokenInvalid):
		util.Forbidden(ctx, "Invalid or expired token")
	case errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx, "User not found")
	case errors.Is(err, util.ErrRecordNotFound):
		util.NotFound(ctx, "Test record not found")
	case errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, "User with this email already exists")
	case errors.Is(err, util.ErrRecordExists):
		util.Conflict(ctx, "Test record with this ID already exists")
	case errors.Is(err, util.ErrNoGuardianEmail):
		util.BadRequest(ctx, "No guardian email configured")
	default:
		util.LogInternalError(ctx, err, fallback)
	}
}
