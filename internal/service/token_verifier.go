package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
)

// TokenConfig configures access token verification. Tokens are issued by
// the identity provider; this service only verifies them.
type TokenConfig struct {
	Secret string
	Issuer string
}

// TokenVerifier validates HS256 access tokens.
type TokenVerifier struct {
	config TokenConfig
}

// NewTokenVerifier constructs a TokenVerifier.
func NewTokenVerifier(config TokenConfig) *TokenVerifier {
	return &TokenVerifier{config: config}
}

// ValidateToken parses and validates an access token returning the claims.
func (v *TokenVerifier) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing user")
	}
	return claims, nil
}

// SessionKey returns the detector session the claims belong to. Tokens
// without a session id fall back to their token id, then to the user.
func SessionKey(claims *models.JWTClaims) string {
	if claims == nil {
		return ""
	}
	if claims.SessionID != "" {
		return claims.SessionID
	}
	if claims.ID != "" {
		return claims.ID
	}
	return "user:" + claims.UserID
}
