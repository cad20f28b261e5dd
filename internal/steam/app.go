package steam

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// App identifies one store entry.
type App struct {
	AppID int64
	Name  string
	URL   string
}

var storeAppURLRe = regexp.MustCompile(`(?i)store\.steampowered\.com/app/(\d+)`)

func storeURL(appID int64) string {
	return fmt.Sprintf("https://store.steampowered.com/app/%d/", appID)
}

// ResolveApp resolves a store link, a numeric app id or a free-text query
// into an App. Returns nil when nothing matched.
func (c *Client) ResolveApp(ctx context.Context, raw string) (*App, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}

	if m := storeAppURLRe.FindStringSubmatch(text); m != nil {
		appID, _ := strconv.ParseInt(m[1], 10, 64)
		return c.appByID(ctx, appID)
	}
	if appID, err := strconv.ParseInt(text, 10, 64); err == nil && appID > 0 {
		return c.appByID(ctx, appID)
	}
	return c.searchApp(ctx, text)
}

func (c *Client) appByID(ctx context.Context, appID int64) (*App, error) {
	name, err := c.fetchAppName(ctx, appID)
	if err != nil || name == "" {
		// The store page may be region locked or delisted; keep the id.
		name = fmt.Sprintf("App %d", appID)
	}
	return &App{AppID: appID, Name: name, URL: storeURL(appID)}, nil
}

// fetchAppName looks up the display name via the appdetails endpoint.
func (c *Client) fetchAppName(ctx context.Context, appID int64) (string, error) {
	params := url.Values{
		"appids": {strconv.FormatInt(appID, 10)},
		"l":      {"english"},
	}
	var resp map[string]struct {
		Success bool `json:"success"`
		Data    struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.storeBase+"/api/appdetails", params, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch app details: %w", err)
	}
	entry, ok := resp[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success {
		return "", nil
	}
	return entry.Data.Name, nil
}

// searchApp queries the store search endpoint and returns the top hit.
func (c *Client) searchApp(ctx context.Context, term string) (*App, error) {
	params := url.Values{
		"term": {term},
		"l":    {"english"},
		"cc":   {"us"},
	}
	var resp struct {
		Items []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, c.storeBase+"/api/storesearch", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to search store: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].ID <= 0 {
		return nil, nil
	}
	item := resp.Items[0]
	name := item.Name
	if name == "" {
		name = fmt.Sprintf("App %d", item.ID)
	}
	return &App{AppID: item.ID, Name: name, URL: storeURL(item.ID)}, nil
}
