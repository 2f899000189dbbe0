package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const tokenIssuer = "postpilot"

// GenerateToken signs a viewer token. timezone may be empty.
func GenerateToken(secretKey string, viewer models.ViewerIdentity, timezone string, tokenDuration time.Duration) (string, error) {
	claims := transfer.ViewerClaims{
		UserID:   viewer.UserID,
		Username: viewer.Username,
		Timezone: timezone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

func ValidateToken(secretKey, tokenString string) (*transfer.ViewerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.ViewerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*transfer.ViewerClaims); ok && token.Valid {
		if claims.UserID == "" && claims.Username == "" {
			return nil, errors.New("token carries no viewer")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
