package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	// TokenTypeAccess authenticates REST calls
	TokenTypeAccess TokenType = "access"
	// TokenTypePlugin authenticates the browser extension's WebSocket
	TokenTypePlugin TokenType = "plugin"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims represents custom JWT claims. user_id scopes every query.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// UserUUID parses the user id
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// IssuedToken is a signed token and its expiry
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // Bearer
}

// JWTService signs and verifies HS256 tokens
type JWTService struct {
	secret           []byte
	issuer           string
	accessExpiration time.Duration
	pluginExpiration time.Duration
	now              func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:           []byte(cfg.Secret),
		issuer:           cfg.Issuer,
		accessExpiration: cfg.AccessTokenExpiration,
		pluginExpiration: cfg.PluginTokenExpiration,
		now:              time.Now,
	}
}

// GenerateAccessToken issues a REST access token for userID
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email string) (*IssuedToken, error) {
	return s.issue(userID, email, TokenTypeAccess, s.accessExpiration)
}

// GeneratePluginToken issues the long-lived token the extension presents on
// the WebSocket upgrade
func (s *JWTService) GeneratePluginToken(userID uuid.UUID) (*IssuedToken, error) {
	return s.issue(userID, "", TokenTypePlugin, s.pluginExpiration)
}

func (s *JWTService) issue(userID uuid.UUID, email string, tokenType TokenType, ttl time.Duration) (*IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:    userID.String(),
		Email:     email,
		TokenType: tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}

// ValidateAccessToken validates a REST access token
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeAccess)
}

// ValidatePluginToken validates the token of a WebSocket upgrade. Access
// tokens are accepted too so a logged-in dashboard can open the socket.
func (s *JWTService) ValidatePluginToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypePlugin, TokenTypeAccess)
}

func (s *JWTService) validate(tokenString string, allowed ...TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	typeOK := false
	for _, t := range allowed {
		if claims.TokenType == t {
			typeOK = true
			break
		}
	}
	if !typeOK {
		return nil, ErrInvalidTokenType
	}

	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

