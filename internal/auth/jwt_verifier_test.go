package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"scandeck/internal/domain"
	"scandeck/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKID = "test-key"

func newTestVerifier(t *testing.T) (JWTVerifier, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	coord := func(n interface{ FillBytes([]byte) []byte }) string {
		return base64.RawURLEncoding.EncodeToString(n.FillBytes(make([]byte, 32)))
	}
	set := map[string]any{
		"keys": []map[string]string{{
			"kty": "EC",
			"crv": "P-256",
			"kid": testKID,
			"alg": "ES256",
			"use": "sig",
			"x":   coord(key.X),
			"y":   coord(key.Y),
		}},
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)

	v, err := NewStaticVerifier(raw, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return v, key
}

func sign(t *testing.T, key *ecdsa.PrivateKey, claims models.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, &claims)
	token.Header["kid"] = testKID
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifyToken(t *testing.T) {
	v, key := newTestVerifier(t)
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	valid := func() models.Claims {
		return models.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Role: "authenticated",
		}
	}

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.VerifyToken(sign(t, key, valid()))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.GetUserID())
	})

	tests := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "not-a-token" }},
		{"expired", func() string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return sign(t, key, c)
		}},
		{"missing subject", func() string {
			c := valid()
			c.Subject = ""
			return sign(t, key, c)
		}},
		{"anonymous role", func() string {
			c := valid()
			c.Role = "anon"
			return sign(t, key, c)
		}},
		{"wrong key", func() string { return sign(t, otherKey, valid()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyToken(tt.token())
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
