package identity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/ports/adapter"
)

var _ adapter.IdentityVerifier = (*JWTVerifier)(nil)

// JWTVerifier maps an HS256 bearer token carrying a user_id claim to a
// principal id. It only verifies; issuing tokens is someone else's job.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, credential string) (string, error) {
	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	// user_id may be a string or a JSON number depending on the issuer.
	switch id := claims["user_id"].(type) {
	case string:
		if id == "" {
			return "", domain.ErrUnauthorized
		}
		return id, nil
	case float64:
		return strconv.FormatInt(int64(id), 10), nil
	default:
		return "", domain.ErrUnauthorized
	}
}
