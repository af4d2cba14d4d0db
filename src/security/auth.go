package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/username/lotledger/backend/src/config"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// AuthService issues and validates operator tokens. The ledger has a single
// operator identity; there are no user accounts.
type AuthService struct {
	JWTSecret       string
	operatorKeyHash []byte
}

// NewAuthService hashes the configured operator key once so token requests
// only ever compare against the hash.
func NewAuthService(secret, operatorKey string) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		JWTSecret:       secret,
		operatorKeyHash: hash,
	}, nil
}

// CheckOperatorKey compares a presented key against the configured one.
func (a *AuthService) CheckOperatorKey(key string) error {
	return bcrypt.CompareHashAndPassword(a.operatorKeyHash, []byte(key))
}

func (a *AuthService) GenerateToken(subject string) (string, error) {
	if config.Cfg == nil {
		return "", errors.New("configuration not loaded, cannot determine token expiry")
	}
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(config.Cfg.AccessTokenExpiry).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

func (a *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok {
			return "", errors.New("invalid token: 'sub' claim missing or not a string")
		}
		return sub, nil
	}

	return "", errors.New("invalid token")
}
