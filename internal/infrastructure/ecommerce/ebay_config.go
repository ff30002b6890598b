package ecommerce

import (
	"errors"
	"time"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
)

const (
	// EbayProductionAPIURL is the production API endpoint
	EbayProductionAPIURL = "https://api.ebay.com"
	// EbaySandboxAPIURL is the sandbox API endpoint
	EbaySandboxAPIURL = "https://api.sandbox.ebay.com"

	// maxEbayResponseSize limits the response body size to prevent memory exhaustion
	maxEbayResponseSize = 10 * 1024 * 1024
)

// Errors for eBay configuration
var (
	ErrEbayConfigMissingClientID     = errors.New("ebay: client id is required")
	ErrEbayConfigMissingClientSecret = errors.New("ebay: client secret is required")
)

// EbayClientConfig holds the eBay application settings shared by every user
type EbayClientConfig struct {
	// APIBaseURL serves the Sell and Post-Order APIs
	APIBaseURL string
	// AuthBaseURL serves the OAuth token endpoint
	AuthBaseURL   string
	ClientID      string
	ClientSecret  string
	MarketplaceID string
	// RatePerSecond and RateBurst size the per-user token bucket
	RatePerSecond float64
	RateBurst     int
	Timeout       time.Duration
}

// EbayClientConfigFrom maps the eBay config section
func EbayClientConfigFrom(cfg config.EbayConfig) EbayClientConfig {
	return EbayClientConfig{
		APIBaseURL:    cfg.APIBaseURL,
		AuthBaseURL:   cfg.AuthBaseURL,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		MarketplaceID: cfg.MarketplaceID,
		RatePerSecond: cfg.RatePerSecond,
		RateBurst:     cfg.RateBurst,
		Timeout:       cfg.Timeout,
	}
}

// Validate validates the eBay configuration
func (c EbayClientConfig) Validate() error {
	if c.ClientID == "" {
		return ErrEbayConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrEbayConfigMissingClientSecret
	}
	return nil
}

func (c EbayClientConfig) withDefaults() EbayClientConfig {
	if c.APIBaseURL == "" {
		c.APIBaseURL = EbayProductionAPIURL
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = c.APIBaseURL
	}
	if c.MarketplaceID == "" {
		c.MarketplaceID = ebay.DefaultMarketplaceID
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
