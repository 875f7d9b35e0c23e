// Package fyers implements the broker API client used as the quote and
// option-chain provider.
package fyers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"optiflow/internal/adapters/config"
	"optiflow/internal/domain/chain"
	"optiflow/internal/domain/market"
	"optiflow/internal/metrics"
	"optiflow/pkg/errors"
	"optiflow/pkg/logger"
)

// Client calls the broker data API. All requests share one rate limiter so
// the settle delay between sub-fetches inside a polling cycle is enforced
// here rather than with ad-hoc sleeps.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	tokens      *TokenStore
	strikeCount int
	log         *logger.Logger
}

// NewClient creates a broker API client
func NewClient(cfg config.FyersConfig, tokens *TokenStore) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		tokens:      tokens,
		strikeCount: cfg.StrikeCount,
		log:         logger.Get().With("component", "fyers_client"),
	}
}

// FetchQuotes fetches spot quotes for the given instruments in one call.
// The result is keyed by the broker instrument name.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) (map[string]market.Quote, error) {
	endpoint := fmt.Sprintf("%s/quotes?symbols=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	start := time.Now()
	var resp quotesResponse
	err := c.get(ctx, endpoint, &resp)
	metrics.RecordProviderCall("quotes", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if resp.S != "ok" && len(resp.D) == 0 {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "quotes status %q", resp.S)
	}

	quotes := make(map[string]market.Quote, len(resp.D))
	for _, item := range resp.D {
		quotes[item.N] = market.Quote{
			LastPrice:     item.V.LP,
			Change:        item.V.Ch,
			ChangePercent: item.V.Chp,
		}
	}
	return quotes, nil
}

// FetchChain fetches the raw option chain around the given reference
// instrument. A response without chain rows yields an empty slice, not an
// error; callers treat that as "skip this cycle".
func (c *Client) FetchChain(ctx context.Context, symbol string) ([]chain.RawLeg, error) {
	endpoint := fmt.Sprintf("%s/options-chain-v3?symbol=%s&strikecount=%d",
		c.baseURL, url.QueryEscape(symbol), c.strikeCount)

	start := time.Now()
	var resp chainResponse
	err := c.get(ctx, endpoint, &resp)
	metrics.RecordProviderCall("options_chain", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	legs := make([]chain.RawLeg, 0, len(resp.Data.OptionsChain))
	for _, leg := range resp.Data.OptionsChain {
		side := chain.SideCall
		if leg.OptionType == "PE" {
			side = chain.SidePut
		}
		legs = append(legs, chain.RawLeg{
			Side:        side,
			Strike:      int(leg.StrikePrice),
			LTP:         leg.LTP,
			PriceChange: leg.LTPChange,
			OI:          leg.OI,
			OIChange:    leg.OIChange,
			Volume:      leg.Volume,
			IV:          leg.IV,
			Delta:       leg.Delta,
			Theta:       leg.Theta,
		})
	}
	return legs, nil
}

// get runs one authenticated GET against the broker API
func (c *Client) get(ctx context.Context, endpoint string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.tokens.Load()
	if err != nil {
		return err
	}
	if !token.Valid() {
		return errors.ErrNoAccessToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "create broker request")
	}
	req.Header.Set("Authorization", token.ClientID+":"+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.ErrRateLimitExceeded
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrapf(errors.ErrProviderUnavailable,
			"broker API status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decode broker response")
	}
	return nil
}
