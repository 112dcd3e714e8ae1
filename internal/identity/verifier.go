package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/psvit/storefront/pkg/errors"
)

// Claims represents the JWT claims carried by the provider's access tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates access tokens locally using the provider's shared
// HS256 secret, so session checks never need a network round trip.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates an access token and returns the session it
// represents. Expired, malformed or wrongly signed tokens come back as
// unauthorized.
func (v *Verifier) Verify(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, apperrors.Unauthorized("invalid access token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized("invalid access token claims")
	}

	session := &Session{
		UserID: claims.Subject,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
