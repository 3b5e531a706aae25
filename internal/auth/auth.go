// Package auth issues and verifies session tokens and password hashes.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ukydev/engineeye/internal/models"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

const (
	defaultTokenExpiry   = 24 * time.Hour
	defaultRefreshExpiry = 30 * 24 * time.Hour
)

// Service handles authentication operations
type Service struct {
	jwtSecret  []byte
	tokenExp   time.Duration
	refreshExp time.Duration
	now        func() time.Time
}

// NewService creates a new authentication service. A non-positive expiry
// falls back to 24 hours.
func NewService(secret string, expiry time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}
	return &Service{
		jwtSecret:  []byte(secret),
		tokenExp:   expiry,
		refreshExp: defaultRefreshExpiry,
		now:        time.Now,
	}, nil
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// issuer is stamped on every token and required when parsing.
const issuer = "engineeye"

// tokenClaims is the signed payload of a session token.
type tokenClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken generates a JWT token for a user
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.jwtSecret)
}

// RefreshToken is a newly issued refresh token. Only Hash is stored.
type RefreshToken struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
}

// GenerateRefreshToken issues a refresh token for userID in the form
// "<user id>.<secret>". The secret is kept as a bcrypt hash.
func (s *Service) GenerateRefreshToken(userID string) (*RefreshToken, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(bytes)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh token: %w", err)
	}
	return &RefreshToken{
		Token:     userID + "." + secret,
		Hash:      string(hash),
		ExpiresAt: s.now().Add(s.refreshExp),
	}, nil
}

// RefreshTokenUser returns the user id a refresh token was issued for.
func RefreshTokenUser(token string) (string, error) {
	userID, secret, ok := strings.Cut(token, ".")
	if !ok || userID == "" || secret == "" {
		return "", ErrInvalidRefresh
	}
	return userID, nil
}

// CheckRefreshToken reports whether token is the unexpired refresh token
// stored on user.
func (s *Service) CheckRefreshToken(token string, user *models.User) bool {
	userID, secret, ok := strings.Cut(token, ".")
	if !ok || user == nil || userID != user.ID.Hex() {
		return false
	}
	if user.RefreshTokenHash == "" || user.RefreshExpiresAt == nil || !s.now().Before(*user.RefreshExpiresAt) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.RefreshTokenHash), []byte(secret)) == nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		Identity: models.Identity{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
		},
		Exp: claims.ExpiresAt.Unix(),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
