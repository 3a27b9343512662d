package models

import "github.com/golang-jwt/jwt/v5"

// JwtCustomClaims carries the authenticated actor's identity and role.
// The auth middleware copies these into the request context so no global
// session state is consulted downstream.
type JwtCustomClaims struct {
	UserID   int64    `json:"userID"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
