package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
	"github.com/SAP-F-2025/notification-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Create adds a user to the local directory. Directories backed by an
// external identity provider reject writes.
func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.New().String()
	}

	user := &models.User{
		ID:       id,
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    req.Phone,
		Role:     req.Role,
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrReadOnly):
			return nil, ErrUserDirectoryReadOnly
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrUserExists
		default:
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	s.logger.Info("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}
