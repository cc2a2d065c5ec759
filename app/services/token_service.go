// Package services provides external service integrations and technical concerns like tokens and delivery channels
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/config"
	"github.com/mercat-labs/loyalty-platform/utils"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService handles JWT token generation and validation
type TokenService interface {
	GenerateToken(userID uuid.UUID, role string) (string, error)
	ValidateToken(token string) (*TokenClaims, error)
	RefreshToken(token string) (string, error)
}

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenID   string    `json:"jti"`
}

// TokenServiceImpl implements TokenService
type TokenServiceImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	issuer    string
	audience  string
}

// NewTokenService creates a new token service
func NewTokenService(cfg *config.JWTConfig) (TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	return &TokenServiceImpl{
		secretKey: []byte(cfg.SecretKey),
		tokenTTL:  cfg.AccessTokenTTL,
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
	}, nil
}

// GenerateToken creates a signed bearer token for a user
func (s *TokenServiceImpl) GenerateToken(userID uuid.UUID, role string) (string, error) {
	now := utils.UTCNow()

	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"jti":  uuid.New().String(),
		"iss":  s.issuer,
		"aud":  s.audience,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken verifies a token's signature and expiry and extracts its claims
func (s *TokenServiceImpl) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	role, _ := claims["role"].(string)
	tokenID, _ := claims["jti"].(string)

	parsed := &TokenClaims{
		UserID:  userID,
		Role:    role,
		TokenID: tokenID,
	}
	if iat, ok := claims["iat"].(float64); ok {
		parsed.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		parsed.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}

	return parsed, nil
}

// RefreshToken mints a new token from a still-valid one
func (s *TokenServiceImpl) RefreshToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	return s.GenerateToken(claims.UserID, claims.Role)
}
