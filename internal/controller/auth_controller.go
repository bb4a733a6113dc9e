package controller

import (
	"neet_tracker_backend/internal/service"
	"neet_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService) *AuthController {
	return &AuthController{
		AuthService: authService,
		UserService: userService,
	}
}

// Signup godoc
// @Summary Register a student
// @Description Creates an account and returns it with a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.RegisterRequest true "signup payload"
// @Success 201 {object} util.Response{data=service.AuthResult}
// @Failure 400 {object} util.Response "validation error"
// @Failure 409 {object} util.Response "email already registered"
// @Failure 500 {object} util.Response
// @Router /auth/signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AuthService.Register(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err, "Failed to create user")
		return
	}
	util.Created(ctx, res)
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "credentials"
// @Success 200 {object} util.Response{data=service.AuthResult}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response "invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AuthService.Login(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err, "Login failed")
		return
	}
	util.Success(ctx, res)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 401 {object} util.Response
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	util.Success(ctx, gin.H{"user": util.CurrentUser(ctx)})
}

// UpdateProfile godoc
// @Summary Update name or guardian email
// @Description An empty guardianEmail removes it
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.UpdateProfileRequest true "fields to change"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Router /auth/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateProfile(ctx.Request.Context(), util.CurrentUser(ctx).ID, req)
	if err != nil {
		respondError(ctx, err, "Failed to update profile")
		return
	}
	util.Success(ctx, gin.H{"user": user})
}
