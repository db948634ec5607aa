package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTSecret         string = "Watchtower"
	JWTExpirationTime        = time.Hour * 24
)

// AdminClaims Token 中携带的业务信息
type AdminClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}
