package auth

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims issued by the identity service. Older tokens carry the id in user_id instead of sub.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HMAC-signed tokens with a shared secret.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(ctx context.Context, credential string) (*models.Identity, error) {
	if credential == "" {
		return nil, fmt.Errorf("missing credential: %w", ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %v: %w", err, ErrUnauthenticated)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	return identityFrom(subject, claims.Role)
}
