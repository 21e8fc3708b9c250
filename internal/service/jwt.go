package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims 管理端令牌声明，Actor 为操作者标识
type JWTClaims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

// GenerateToken 签发管理端令牌
func GenerateToken(secretKey, actor string, expireHours int) (string, time.Time, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)
	claims := &JWTClaims{
		Actor: EnsureActor(actor),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
