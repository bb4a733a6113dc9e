package service

import (
	"context"
	"errors"
	"fmt"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/util"
	"net/mail"
	"strings"

	"gorm.io/gorm"
)

type UserService struct {
	UserRepo UserStore
}

func NewUserService(userRepo UserStore) *UserService {
	return &UserService{UserRepo: userRepo}
}

// UpdateProfileRequest only touches fields that are present. An empty
// guardianEmail clears it.
type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	GuardianEmail *string `json:"guardianEmail"`
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			user.Name = name
		}
	}
	if req.GuardianEmail != nil {
		guardian := normalizeEmail(*req.GuardianEmail)
		if guardian != "" {
			if _, err := mail.ParseAddress(guardian); err != nil {
				return nil, fmt.Errorf("%w: guardianEmail is not a valid address", util.ErrValidation)
			}
		}
		user.GuardianEmail = guardian
	}

	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
