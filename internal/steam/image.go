package steam

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
)

// FetchImage downloads and decodes one image.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("empty image url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.doRequest(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch failed: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// FetchCover returns cover art for an app. SteamGridDB is preferred when a
// key is configured; the public CDN assets are the fallback.
func (c *Client) FetchCover(ctx context.Context, appID int64) (image.Image, error) {
	if appID <= 0 {
		return nil, fmt.Errorf("invalid appid %d", appID)
	}

	var urls []string
	if c.gridDBKey != "" {
		if u, err := c.gridCoverURL(ctx, appID); err == nil && u != "" {
			urls = append(urls, u)
		}
	}
	urls = append(urls,
		fmt.Sprintf("https://shared.akamai.steamstatic.com/store_item_assets/steam/apps/%d/library_600x900_2x.jpg", appID),
		fmt.Sprintf("https://cdn.akamai.steamstatic.com/steam/apps/%d/header.jpg", appID),
	)

	var lastErr error
	for _, u := range urls {
		img, err := c.FetchImage(ctx, u)
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no cover available for app %d: %w", appID, lastErr)
}

// gridCoverURL asks SteamGridDB for the first grid image of an app.
func (c *Client) gridCoverURL(ctx context.Context, appID int64) (string, error) {
	headers := map[string]string{"Authorization": "Bearer " + c.gridDBKey}
	var resp struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/grids/steam/%d", c.gridBase, appID)
	if err := c.getJSON(ctx, endpoint, nil, headers, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].URL, nil
}
