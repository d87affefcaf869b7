package session

import (
	"errors"
	"fmt"
	"time"

	"combatai/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

type ServiceImpl struct {
	config config.JWTConfig
	now    func() time.Time
}

func NewServiceImpl(config config.JWTConfig) *ServiceImpl {
	return &ServiceImpl{
		config: config,
		now:    time.Now,
	}
}

// Issue starts a new anonymous session owning an empty battle list.
func (s *ServiceImpl) Issue() (*SessionResponse, error) {
	owner := uuid.NewString()
	now := s.now()
	expiresAt := now.Add(time.Duration(s.config.ExpiryHours) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   owner,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	tokenString, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &SessionResponse{
		Token:     tokenString,
		Owner:     owner,
		ExpiresAt: expiresAt.UTC().Truncate(time.Second),
	}, nil
}

// Verify checks the signature and expiry of token and returns its owner.
func (s *ServiceImpl) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return []byte(s.config.SecretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
