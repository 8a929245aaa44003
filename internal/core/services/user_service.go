package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
)

type userService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
}

// NewUserService creates the read-side user service.
func NewUserService(userRepo portsrepo.UserRepositoryFacade) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID in service: %w", err)
	}
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email in service: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	s.LogDebug(ctx, "Listing users", slog.Int("limit", limit), slog.Int("offset", offset))
	users, err := s.userRepo.FindUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
