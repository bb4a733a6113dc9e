package service

import (
	"context"
	"errors"
	"fmt"
	"neet_tracker_backend/internal/config"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/util"
	"neet_tracker_backend/pkg/logger"
	"neet_tracker_backend/pkg/tracing"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

// Welcomer sends the signup greeting. NotificationService implements it.
type Welcomer interface {
	SendWelcome(ctx context.Context, user *model.User) bool
}

type AuthService struct {
	UserRepo UserStore
	Cfg      *config.Config
	Welcomer Welcomer
}

func NewAuthService(userRepo UserStore, cfg *config.Config, welcomer Welcomer) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
		Welcomer: welcomer,
	}
}

// swagger:model RegisterRequest
type RegisterRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	Name          string `json:"name" binding:"required"`
	GuardianEmail string `json:"guardianEmail" binding:"omitempty,email"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: email, password and name are required", util.ErrValidation)
	}

	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:         email,
		Password:      string(hashedPassword),
		Name:          name,
		GuardianEmail: normalizeEmail(req.GuardianEmail),
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("user registered", zap.String("user_id", user.ID))
	s.welcome(user)

	return &AuthResult{User: user, Token: token}, nil
}

// welcome runs detached from the request so a slow SMTP server never delays signup.
func (s *AuthService) welcome(user *model.User) {
	if s.Welcomer == nil {
		return
	}
	u := *user
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Welcomer.SendWelcome(ctx, &u)
	}()
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.UserRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) IssueToken(user *model.User) (string, error) {
	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := util.ParseJWT(token, s.Cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	user, err := s.UserRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
