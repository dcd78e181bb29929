package handlers

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/pkg/jwt"
)

// JWTVerifier accepts HS256 tokens issued by the platform.
type JWTVerifier struct {
	manager *jwt.Manager
}

func NewJWTVerifier(manager *jwt.Manager) *JWTVerifier {
	return &JWTVerifier{manager: manager}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := v.manager.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	role := models.UserRole(claims.Role)
	if !role.IsValid() {
		role = models.RoleStudent
	}

	return &Identity{
		UserID: claims.UserID,
		Role:   role,
		Email:  claims.Email,
	}, nil
}
