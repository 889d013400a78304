package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/templui/claimguard/internal/model"
	"github.com/templui/claimguard/internal/repository"
	"github.com/templui/claimguard/internal/validation"
)

var ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

type ProfileInput struct {
	Name   *string
	Avatar *string
}

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.PasswordHash = nil
	return user, nil
}

// UpdateProfile changes the name and avatar. Email and role are fixed after registration.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	user, err := s.users.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, err
		}
		user.Name = name
	}
	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		if avatar == "" {
			user.Avatar = nil
		} else {
			user.Avatar = &avatar
		}
	}

	user.UpdatedAt = time.Now().UTC()
	err = s.users.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.PasswordHash = nil
	return user, nil
}
