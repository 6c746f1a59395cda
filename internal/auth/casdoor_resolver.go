package auth

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

type casdoorTokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorResolver verifies tokens issued by Casdoor against the application certificate.
// The role comes from the user's Casdoor roles, then the admin flag, then the user tag.
type CasdoorResolver struct {
	parser casdoorTokenParser
}

func NewCasdoorResolver(cfg config.AuthConfig) *CasdoorResolver {
	client := casdoorsdk.NewClient(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &CasdoorResolver{parser: client}
}

func (r *CasdoorResolver) Resolve(ctx context.Context, credential string) (*models.Identity, error) {
	if credential == "" {
		return nil, fmt.Errorf("missing credential: %w", ErrUnauthenticated)
	}

	claims, err := r.parser.ParseJwtToken(credential)
	if err != nil {
		return nil, fmt.Errorf("invalid casdoor token: %v: %w", err, ErrUnauthenticated)
	}

	subject := claims.User.Id
	if subject == "" {
		subject = claims.User.Name
	}
	return identityFrom(subject, casdoorRole(claims.User))
}

// casdoorRole picks the most privileged recognised role of the user.
func casdoorRole(user casdoorsdk.User) string {
	best := ""
	rank := map[models.UserRole]int{
		models.RoleLearner:       1,
		models.RoleInstructor:    2,
		models.RoleAdministrator: 3,
	}
	for _, role := range user.Roles {
		if role == nil {
			continue
		}
		parsed, ok := models.ParseRole(role.Name)
		if !ok {
			continue
		}
		current, _ := models.ParseRole(best)
		if rank[parsed] > rank[current] {
			best = string(parsed)
		}
	}
	if best != "" {
		return best
	}
	if user.IsAdmin {
		return string(models.RoleAdministrator)
	}
	return user.Tag
}

// NewResolver builds the resolver selected by AUTH_PROVIDER.
func NewResolver(cfg *config.Config) (Resolver, error) {
	switch cfg.Auth.Provider {
	case "", "jwt":
		return NewJWTResolver(cfg.JWTSecret), nil
	case "casdoor":
		return NewCasdoorResolver(cfg.Auth), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}
