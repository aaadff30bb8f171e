package user

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type UpsertInput struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarURL   string
	Provider    string
}

func (s *Service) UpsertProfile(ctx context.Context, input UpsertInput) error {
	if input.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	profile := Profile{UserID: input.UserID}
	if input.Email != "" {
		profile.Email = &input.Email
	}
	if input.DisplayName != "" {
		profile.DisplayName = &input.DisplayName
	}
	if input.AvatarURL != "" {
		profile.AvatarURL = &input.AvatarURL
	}
	if input.Provider != "" {
		profile.Provider = &input.Provider
	}

	return s.repo.UpsertProfile(ctx, &profile)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.repo.GetProfile(ctx, userID)
}

// RecordLogin bumps last_login_at; a failure here must not fail the sign-in.
func (s *Service) RecordLogin(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return s.repo.TouchLastLogin(ctx, userID)
}
