package auth

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"projectmanager/internal/domain/errors"
)

// Claims — структура утверждений токена: стандартные утверждения плюс
// идентификатор пользователя.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenManager выпускает и проверяет подписанные токены сессии.
// Секрет задаётся при старте процесса и далее не меняется.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (tm *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
		UserID: userID,
	})
	return token.SignedString(tm.secret)
}

// Verify проверяет подпись и срок действия токена и возвращает ID
// пользователя. Ошибки различаются по виду: ErrTokenExpired,
// ErrTokenMalformed, ErrTokenInvalid — все три означают для вызывающего
// "не аутентифицирован", но различимы в логах.
func (tm *TokenManager) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrTokenInvalid
		}
		return tm.secret, nil
	})
	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return "", errors.ErrTokenExpired
		case stderrors.Is(err, jwt.ErrTokenMalformed):
			return "", errors.ErrTokenMalformed
		default:
			return "", errors.ErrTokenInvalid
		}
	}
	if !token.Valid || claims.UserID == "" {
		return "", errors.ErrTokenInvalid
	}
	return claims.UserID, nil
}
