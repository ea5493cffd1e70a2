package model

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims of an admin session token.
type Claims struct {
	jwt.RegisteredClaims
}
