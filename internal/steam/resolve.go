package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// steamID64Base converts a friend code (account id) to a steamid64.
const steamID64Base = 76561197960265728

var (
	profileURLRe   = regexp.MustCompile(`(?i)steamcommunity\.com/profiles/(\d{17})(?:/|$)`)
	vanityURLRe    = regexp.MustCompile(`(?i)steamcommunity\.com/id/([^/?#\s]+)`)
	addFriendRe    = regexp.MustCompile(`(?i)steamcommunity\.com/addfriend/(\d+)`)
	shortLinkRe    = regexp.MustCompile(`(?i)(https?://s\.team/p/[A-Za-z0-9\-]+)`)
	steamID64Re    = regexp.MustCompile(`^\d{17}$`)
	friendCodeRe   = regexp.MustCompile(`^\d{1,12}$`)
)

// ResolveSteamID64 turns a free-form Steam identifier into a canonical
// steamid64. Accepted forms: 17-digit id, friend code, profile or vanity
// community URL, add-friend URL, s.team short link, or a bare vanity name.
// Returns an empty string when nothing matched.
func (c *Client) ResolveSteamID64(ctx context.Context, raw string) (string, error) {
	text := normalizeTarget(raw)
	if text == "" {
		return "", nil
	}

	if m := profileURLRe.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	if m := vanityURLRe.FindStringSubmatch(text); m != nil {
		return c.resolveVanity(ctx, m[1])
	}
	if m := addFriendRe.FindStringSubmatch(text); m != nil {
		acc, _ := strconv.ParseInt(m[1], 10, 64)
		return strconv.FormatInt(steamID64Base+acc, 10), nil
	}
	if m := shortLinkRe.FindStringSubmatch(text); m != nil {
		if id, err := c.resolveShortLink(ctx, m[1]); err == nil && id != "" {
			return id, nil
		}
	}
	if steamID64Re.MatchString(text) {
		return text, nil
	}
	if friendCodeRe.MatchString(text) {
		val, _ := strconv.ParseInt(text, 10, 64)
		if val > steamID64Base {
			return text, nil
		}
		return strconv.FormatInt(steamID64Base+val, 10), nil
	}

	return c.resolveVanity(ctx, text)
}

// resolveVanity resolves a vanity name via ResolveVanityURL.
func (c *Client) resolveVanity(ctx context.Context, vanity string) (string, error) {
	if vanity == "" {
		return "", nil
	}

	params := url.Values{
		"key":       {c.apiKey},
		"vanityurl": {vanity},
	}
	var resp struct {
		Response struct {
			Success int    `json:"success"`
			SteamID string `json:"steamid"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, c.apiBase+"/ISteamUser/ResolveVanityURL/v1/", params, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to resolve vanity url: %w", err)
	}
	if resp.Response.Success != 1 {
		return "", nil
	}
	return strings.TrimSpace(resp.Response.SteamID), nil
}

// resolveShortLink follows an s.team short link and extracts the profile id
// from the final URL or the returned page.
func (c *Client) resolveShortLink(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.doRequest(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	if m := profileURLRe.FindStringSubmatch(finalURL); m != nil {
		return m[1], nil
	}
	if m := vanityURLRe.FindStringSubmatch(finalURL); m != nil {
		return c.resolveVanity(ctx, m[1])
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if m := profileURLRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	if m := addFriendRe.FindSubmatch(body); m != nil {
		acc, _ := strconv.ParseInt(string(m[1]), 10, 64)
		return strconv.FormatInt(steamID64Base+acc, 10), nil
	}
	return "", nil
}

func normalizeTarget(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.Trim(text, `"'`)
	text = strings.Trim(text, "<>")
	return strings.TrimSpace(text)
}
