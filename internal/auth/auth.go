package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/xtrntr/ligabets/internal/ledger"
	"github.com/xtrntr/ligabets/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks
var ErrInvalidToken = errors.New("invalid token")

// Claims identify the session holder
type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles user authentication
type AuthService struct {
	Ledger *ledger.Ledger
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(l *ledger.Ledger, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Ledger: l, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Register creates a new user in the ledger
func (s *AuthService) Register(username, email, password, referralCode string) (models.User, error) {
	if len(username) > 50 {
		return models.User{}, fmt.Errorf("username too long (max 50 characters): %w", ledger.ErrInvalidInput)
	}
	if len(password) > 100 {
		return models.User{}, fmt.Errorf("password too long (max 100 characters): %w", ledger.ErrInvalidInput)
	}
	return s.Ledger.Register(username, email, password, referralCode)
}

// Login verifies credentials and generates a JWT
func (s *AuthService) Login(email, password string) (string, models.User, error) {
	user, err := s.Ledger.Authenticate(email, password)
	if err != nil {
		return "", models.User{}, err
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, user, nil
}

// GetUserFromToken validates a JWT and returns its claims
func (s *AuthService) GetUserFromToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
