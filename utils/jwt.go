package utils

import (
	"errors"
	"time"

	"tutordesk/config"
	"tutordesk/models"

	"github.com/golang-jwt/jwt"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// ErrMissingSecret is returned when production runs without JWT_SECRET.
var ErrMissingSecret = errors.New("JWT_SECRET is not configured")

// secretKey falls back to a fixed development secret outside production only.
func secretKey() ([]byte, error) {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		if config.IsProduction() {
			return nil, ErrMissingSecret
		}
		secret = "tutordesk-dev-secret"
	}
	return []byte(secret), nil
}

// GenerateToken creates a signed JWT carrying the actor's id and role.
// The token expires after the specified duration.
func GenerateToken(actor models.Actor, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  actor.ID,
		"role": actor.Role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	key, err := secretKey()
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey()
	})
}

// ActorFromToken extracts the actor (sub and role claims) from a valid token string.
func ActorFromToken(tokenString string) (models.Actor, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return models.Actor{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Actor{}, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	return models.Actor{ID: sub, Role: role}, nil
}
