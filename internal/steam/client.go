package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBase   = "https://api.steampowered.com"
	defaultStoreBase = "https://store.steampowered.com"
	defaultGridBase  = "https://www.steamgriddb.com/api/v2"

	userAgent = "steamwatch-bot/1.0"
)

// Client talks to the Steam Web API, the Steam store API and SteamGridDB.
type Client struct {
	apiKey     string
	gridDBKey  string
	httpClient *http.Client
	limiter    *rate.Limiter

	// Overridable in tests.
	apiBase   string
	storeBase string
	gridBase  string
}

// NewClient creates a Steam API client. The SteamGridDB key is optional;
// without it cover lookups fall back to the public CDN images.
func NewClient(apiKey, gridDBKey string) *Client {
	return &Client{
		apiKey:    apiKey,
		gridDBKey: gridDBKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		// Steam allows roughly 100k calls per day; 10 req/s with a small
		// burst keeps one bot instance comfortably inside that.
		limiter:   rate.NewLimiter(rate.Limit(10), 5),
		apiBase:   defaultAPIBase,
		storeBase: defaultStoreBase,
		gridBase:  defaultGridBase,
	}
}

// doRequest performs a rate-limited HTTP request.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}

// getJSON performs a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, headers map[string]string, result interface{}) error {
	u := endpoint
	if len(params) > 0 {
		u = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
