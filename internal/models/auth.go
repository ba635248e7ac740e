package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates caller roles.
type UserRole string

// Supported roles.
const (
	RoleAdmin  UserRole = "ADMIN"
	RoleMember UserRole = "MEMBER"
)

// JWTClaims represents the access token payload. SessionID scopes the
// expiration detector state and is dropped on logout.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	SessionID string   `json:"sid"`
	jwt.RegisteredClaims
}
