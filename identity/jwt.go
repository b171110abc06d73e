package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JwtClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	// SID identifies the sign-in the token was issued for.
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

func GenerateJWT(uid uuid.UUID, email string, sid string, expiresAt time.Time, jwtKey []byte) (string, error) {
	claims := &JwtClaims{
		UID:   uid.String(),
		Email: email,
		SID:   sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func ValidateJWT(tokenStr string, jwtKey []byte) (*JwtClaims, error) {
	claims := &JwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, errors.New("invalid token signature")
		}
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
