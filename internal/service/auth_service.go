package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/denver-kabob/internal/cache"
	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenHours = 12

// AuthService issues staff sessions for the shared admin password
type AuthService struct {
	cfg          *config.Config
	passwordHash []byte
}

// NewAuthService prepares the password hash once
func NewAuthService(cfg *config.Config) *AuthService {
	s := &AuthService{cfg: cfg}
	if cfg == nil {
		return s
	}
	if hash := strings.TrimSpace(cfg.Admin.PasswordHash); hash != "" {
		s.passwordHash = []byte(hash)
		return s
	}
	if cfg.Admin.Password != "" {
		hash, err := HashPassword(cfg.Admin.Password)
		if err != nil {
			logger.Errorw("admin_password_hash_failed", "error", err)
			return s
		}
		s.passwordHash = []byte(hash)
	}
	return s
}

// HashPassword bcrypt hashes a password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Configured reports whether a password has been set
func (s *AuthService) Configured() bool {
	return len(s.passwordHash) > 0
}

// JWTClaims admin session claims
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login checks the password and issues a token
func (s *AuthService) Login(password string) (string, time.Time, error) {
	if !s.Configured() {
		return "", time.Time{}, ErrAdminNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.GenerateJWT()
}

// GenerateJWT signs a new admin token
func (s *AuthService) GenerateJWT() (string, time.Time, error) {
	now := time.Now()
	hours := defaultTokenHours
	if s.cfg != nil && s.cfg.JWT.ExpireHours > 0 {
		hours = s.cfg.JWT.ExpireHours
	}
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		Role: constants.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   constants.AdminRole,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret())
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseJWT verifies signature and expiry
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret(), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}

// Authenticate accepts only live, unrevoked admin tokens
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*JWTClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}
	claims, err := s.ParseJWT(tokenString)
	if err != nil {
		return nil, errors.Join(ErrTokenInvalid, err)
	}
	if claims.Role != constants.AdminRole || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	revoked, err := cache.IsAdminTokenRevoked(ctx, claims.ID)
	if err != nil {
		// redis down: accept rather than lock staff out
		logger.Warnw("admin_token_revocation_check_failed", "jti", claims.ID, "error", err)
	}
	if revoked {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Logout revokes the token id until it expires
func (s *AuthService) Logout(ctx context.Context, claims *JWTClaims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return cache.RevokeAdminToken(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *AuthService) secret() []byte {
	if s.cfg == nil {
		return nil
	}
	return []byte(s.cfg.JWT.SecretKey)
}
