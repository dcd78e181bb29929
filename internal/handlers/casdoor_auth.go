package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/notification-service/internal/config"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

// casdoorParser is the part of the Casdoor client used to check tokens.
type casdoorParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorVerifier checks tokens signed by Casdoor and resolves the caller
// through the user directory, falling back to the token claims.
type CasdoorVerifier struct {
	client   casdoorParser
	userRepo repositories.UserRepository
}

// NewCasdoorVerifier creates a verifier backed by the Casdoor SDK
func NewCasdoorVerifier(cfg config.CasdoorConfig, userRepo repositories.UserRepository) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client, userRepo: userRepo}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	user, err := v.extractUserFromClaims(ctx, claims)
	if err != nil {
		return nil, err
	}

	return &Identity{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		User:   user,
	}, nil
}

// extractUserFromClaims extracts user information from JWT claims
func (v *CasdoorVerifier) extractUserFromClaims(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	userID := claims.User.Id
	if userID == "" {
		return nil, fmt.Errorf("%w: no user id in token", ErrInvalidToken)
	}

	if v.userRepo != nil {
		if user, err := v.userRepo.GetByID(ctx, userID); err == nil {
			return user, nil
		}
	}
	return userFromClaims(claims), nil
}

// userFromClaims creates a user model from JWT claims
func userFromClaims(claims *casdoorsdk.Claims) *models.User {
	user := &models.User{
		ID:            claims.User.Id,
		FullName:      claims.User.DisplayName,
		Email:         claims.User.Email,
		Role:          mapCasdoorTypeToUserRole(claims.User.Type),
		EmailVerified: true,
	}
	if claims.User.Phone != "" {
		phone := claims.User.Phone
		user.Phone = &phone
	}
	if claims.User.Avatar != "" {
		avatar := claims.User.Avatar
		user.AvatarURL = &avatar
	}
	return user
}

// mapCasdoorTypeToUserRole maps Casdoor user type to internal role
func mapCasdoorTypeToUserRole(casdoorType string) models.UserRole {
	switch strings.ToLower(casdoorType) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "educator":
		return models.RoleTeacher
	case "parent", "guardian":
		return models.RoleParent
	default:
		return models.RoleStudent
	}
}
