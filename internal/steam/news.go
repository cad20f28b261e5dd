package steam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// NewsItem is the most recent announcement for one app.
type NewsItem struct {
	GID      string `json:"gid"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Author   string `json:"author"`
	Contents string `json:"contents"`
	Date     int64  `json:"date"`
}

// FetchLatestNews returns the newest news item for an app, or nil when the
// feed is empty.
func (c *Client) FetchLatestNews(ctx context.Context, appID int64) (*NewsItem, error) {
	if appID <= 0 {
		return nil, nil
	}

	params := url.Values{
		"appid":     {strconv.FormatInt(appID, 10)},
		"count":     {"1"},
		"maxlength": {"300"},
		"format":    {"json"},
	}
	var resp struct {
		AppNews struct {
			NewsItems []NewsItem `json:"newsitems"`
		} `json:"appnews"`
	}
	if err := c.getJSON(ctx, c.apiBase+"/ISteamNews/GetNewsForApp/v2/", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	if len(resp.AppNews.NewsItems) == 0 {
		return nil, nil
	}
	item := resp.AppNews.NewsItems[0]
	return &item, nil
}
