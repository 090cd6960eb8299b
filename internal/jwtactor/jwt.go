// Package jwtactor issues and validates the HS256 bearer tokens that carry
// the authenticated actor and role into the control plane.
package jwtactor

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
)

// Claims are the JWT claims for actor tokens. Role gating itself happens in
// the services; the token only establishes who is calling.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles actor token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func New(signingKey string, issuer string, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// IssueToken mints a token for an actor. The actor ID becomes the subject.
func (s *Service) IssueToken(actor domain.Actor, expiresIn time.Duration) (string, error) {
	if actor.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "actor ID and role are required")
	}
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: actor.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning the actor it carries.
func (s *Service) ValidateToken(tokenString string) (domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token carries an unknown role")
	}
	if claims.Subject == "" {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token carries no subject")
	}
	return domain.Actor{ID: claims.Subject, Role: role}, nil
}
