package utils

import (
	"errors"
	"time"

	"salonbook/models"

	"github.com/golang-jwt/jwt"
)

// GenerateToken creates a signed JWT for a customer session.
// The token expires after the specified duration.
func GenerateToken(secret []byte, sess models.Session, duration time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	claims := jwt.MapClaims{
		"sub": sess.UserID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(duration).Unix(),
	}
	if sess.DeviceID != "" {
		claims["device"] = sess.DeviceID
	}
	if sess.Role != "" {
		claims["role"] = sess.Role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(secret []byte, tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
}

// ParseSessionToken validates tokenString and turns its claims into a
// Session. The raw token is kept so it can be forwarded to the backend.
func ParseSessionToken(secret []byte, tokenString string) (models.Session, error) {
	if len(secret) == 0 {
		return models.Session{}, errors.New("jwt secret is not configured")
	}
	token, err := ValidateToken(secret, tokenString)
	if err != nil {
		return models.Session{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Session{}, errors.New("invalid token")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Session{}, errors.New("token does not contain a valid 'sub' claim")
	}
	device, _ := claims["device"].(string)
	role, _ := claims["role"].(string)
	return models.Session{UserID: sub, DeviceID: device, Role: role, Token: tokenString}, nil
}
