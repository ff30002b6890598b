package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/ratelimit"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
)

// authScheme selects the Authorization header format
type authScheme string

const (
	authBearer authScheme = "Bearer"
	// authIAF is required by the Post-Order API
	authIAF authScheme = "IAF"
)

// ebayRequest describes one REST call
type ebayRequest struct {
	// name labels the call in metrics; paths carry ids
	name   string
	method string
	path   string
	query  url.Values
	body   any
	auth   authScheme
}

func (r ebayRequest) op() string {
	return r.method + " " + r.path
}

// EbayClient is the HTTP transport shared by the eBay API clients: per-user
// rate limiting, OAuth, error mapping and call metrics.
type EbayClient struct {
	config     EbayClientConfig
	httpClient *http.Client
	tokens     AccessTokenSource
	limiter    *ratelimit.UserLimiter
	metrics    *telemetry.Metrics
	logger     *zap.Logger
}

// NewEbayClient creates the transport; metrics may be nil
func NewEbayClient(cfg EbayClientConfig, tokens AccessTokenSource, metrics *telemetry.Metrics, logger *zap.Logger) *EbayClient {
	cfg = cfg.withDefaults()
	return &EbayClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		limiter:    ratelimit.NewUserLimiter(cfg.RatePerSecond, cfg.RateBurst),
		metrics:    metrics,
		logger:     logger,
	}
}

// MarketplaceID returns the default eBay site
func (c *EbayClient) MarketplaceID() string {
	return c.config.MarketplaceID
}

// do sends the request for userID and decodes a JSON body into out.
// A 401 drops the cached access token and retries once with a fresh one.
func (c *EbayClient) do(ctx context.Context, userID uuid.UUID, req ebayRequest, out any) (err error) {
	started := time.Now()
	defer func() {
		c.metrics.MarketplaceCall(string(marketplace.Ebay), req.name, err, time.Since(started))
	}()

	if err := c.limiter.Wait(ctx, userID); err != nil {
		return err
	}

	status, body, err := c.send(ctx, userID, req)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.tokens.Invalidate(ctx, userID)
		if status, body, err = c.send(ctx, userID, req); err != nil {
			return err
		}
	}
	if status >= http.StatusBadRequest {
		apiErr := newEbayAPIError(req.op(), status, body)
		logger.Enrich(ctx, c.logger).Debug("eBay call failed",
			zap.String("operation", apiErr.Op),
			zap.Int("status", status),
			zap.Int("error_id", apiErr.ErrorID),
		)
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("ebay: %s: failed to parse response: %w", req.op(), err)
	}
	return nil
}

func (c *EbayClient) send(ctx context.Context, userID uuid.UUID, req ebayRequest) (int, []byte, error) {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return 0, nil, fmt.Errorf("ebay: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.config.APIBaseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("ebay: failed to create request: %w", err)
	}

	scheme := req.auth
	if scheme == "" {
		scheme = authBearer
	}
	httpReq.Header.Set("Authorization", string(scheme)+" "+token)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.config.MarketplaceID)
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Content-Language", "fr-FR")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("ebay: %s: %w", req.op(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEbayResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("ebay: failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func pageValues(offset, limit int) url.Values {
	q := url.Values{}
	q.Set("offset", fmt.Sprint(offset))
	q.Set("limit", fmt.Sprint(limit))
	return q
}
