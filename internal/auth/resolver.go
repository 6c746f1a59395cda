package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Resolver verifies a bearer credential and returns the caller. It holds no per-request state.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*models.Identity, error)
}

// RequireRole fails with ErrForbidden when the identity's role is not among allowed.
func RequireRole(identity *models.Identity, allowed ...models.UserRole) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return fmt.Errorf("role %s not permitted: %w", identity.Role, ErrForbidden)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("authorization header must be in the format: Bearer {token}: %w", ErrUnauthenticated)
	}
	return parts[1], nil
}

func identityFrom(subject, rawRole string) (*models.Identity, error) {
	if subject == "" {
		return nil, fmt.Errorf("credential has no subject: %w", ErrUnauthenticated)
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return nil, fmt.Errorf("unknown role %q: %w", rawRole, ErrUnauthenticated)
	}
	return &models.Identity{SubjectID: subject, Role: role}, nil
}
