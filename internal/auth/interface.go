package auth

import "scandeck/internal/domain/models"

// JWTVerifier validates bearer tokens for the HTTP API.
type JWTVerifier interface {
	// VerifyToken validates a JWT and returns its claims. Invalid, expired or
	// wrongly signed tokens return domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier
	Close() error
}
