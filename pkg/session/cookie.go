package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// cookieIssuer はCookie用JWTの発行者。
const cookieIssuer = "nodecat-gateway"

// ErrInvalidCookie はCookieの署名・期限・内容のいずれかが不正であることを表す。
var ErrInvalidCookie = errors.New("セッションCookieが不正です")

// NewID は新しいセッションIDを生成する。
func NewID() string {
	return uuid.NewString()
}

// SignID はセッションIDをHS256で署名したCookie値を生成する。
func SignID(secret, id string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Issuer:    cookieIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("セッションCookieの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseID はCookie値を検証し、セッションIDを取り出す。
func ParseID(secret, value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidCookie
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", ErrInvalidCookie
	}
	return claims.ID, nil
}
