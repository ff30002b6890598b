package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/cache"
)

const (
	ebayTokenPath = "/identity/v1/oauth2/token"

	// tokenExpiryMargin is subtracted from expires_in before caching
	tokenExpiryMargin = 5 * time.Minute
)

// RefreshTokenDecrypter opens the stored refresh token
type RefreshTokenDecrypter interface {
	Decrypt(box []byte) ([]byte, error)
}

// AccessTokenSource hands out user access tokens to the API clients
type AccessTokenSource interface {
	AccessToken(ctx context.Context, userID uuid.UUID) (string, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type ebayTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// EbayTokenProvider exchanges stored refresh tokens for access tokens
type EbayTokenProvider struct {
	config      EbayClientConfig
	httpClient  *http.Client
	credentials ebay.CredentialRepository
	decrypter   RefreshTokenDecrypter
	cache       cache.TokenCache
	logger      *zap.Logger
	now         func() time.Time

	// one refresh in flight per user
	locks sync.Map
}

// NewEbayTokenProvider creates a token provider
func NewEbayTokenProvider(
	cfg EbayClientConfig,
	credentials ebay.CredentialRepository,
	decrypter RefreshTokenDecrypter,
	tokens cache.TokenCache,
	logger *zap.Logger,
) *EbayTokenProvider {
	cfg = cfg.withDefaults()
	return &EbayTokenProvider{
		config:      cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		credentials: credentials,
		decrypter:   decrypter,
		cache:       tokens,
		logger:      logger,
		now:         time.Now,
	}
}

var _ AccessTokenSource = (*EbayTokenProvider)(nil)

func tokenCacheKey(userID uuid.UUID) string {
	return "ebay:" + userID.String()
}

// AccessToken returns a cached access token or refreshes one
func (p *EbayTokenProvider) AccessToken(ctx context.Context, userID uuid.UUID) (string, error) {
	key := tokenCacheKey(userID)
	if token, ok := p.cached(ctx, key); ok {
		return token, nil
	}

	mu, _ := p.locks.LoadOrStore(userID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	if token, ok := p.cached(ctx, key); ok {
		return token, nil
	}

	cred, err := p.credentials.FindByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if cred.IsExpired(p.now()) {
		return "", fmt.Errorf("%w: refresh token expired", ebay.ErrNotConnected)
	}
	refreshToken, err := p.decrypter.Decrypt(cred.EncryptedRefreshToken)
	if err != nil {
		return "", fmt.Errorf("ebay: refresh token unreadable: %w", err)
	}

	resp, err := p.exchange(ctx, string(refreshToken), cred.Scopes)
	if err != nil {
		return "", err
	}

	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenExpiryMargin
	if err := p.cache.Set(ctx, key, resp.AccessToken, ttl); err != nil {
		p.logger.Warn("Failed to cache eBay access token", zap.String("user_id", userID.String()), zap.Error(err))
	}
	p.logger.Debug("eBay access token refreshed",
		zap.String("user_id", userID.String()),
		zap.Duration("ttl", ttl),
	)
	return resp.AccessToken, nil
}

// Invalidate drops the cached token after eBay rejected it
func (p *EbayTokenProvider) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := p.cache.Delete(ctx, tokenCacheKey(userID)); err != nil {
		p.logger.Warn("Failed to evict eBay access token", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (p *EbayTokenProvider) cached(ctx context.Context, key string) (string, bool) {
	token, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("eBay token cache unavailable", zap.Error(err))
		return "", false
	}
	return token, ok
}

func (p *EbayTokenProvider) exchange(ctx context.Context, refreshToken string, scopes []string) (*ebayTokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.AuthBaseURL+ebayTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to create token request: %w", err)
	}
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ebay: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEbayResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to read token response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := newEbayAPIError("POST "+ebayTokenPath, resp.StatusCode, body)
		// a revoked or expired grant needs the user to reconnect
		if apiErr.Message == "invalid_grant" {
			return nil, fmt.Errorf("%w: %w", ebay.ErrNotConnected, apiErr)
		}
		return nil, apiErr
	}

	var out ebayTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("ebay: failed to parse token response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, errors.New("ebay: token response has no access token")
	}
	return &out, nil
}
