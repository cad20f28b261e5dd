package steam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PlayerState is the classified presence of a Steam account.
type PlayerState string

const (
	StateUnset   PlayerState = ""
	StateOnline  PlayerState = "online"
	StateOffline PlayerState = "offline"
	StateInGame  PlayerState = "in_game"
)

// Text returns a human-readable label for a state.
func (s PlayerState) Text() string {
	switch s {
	case StateInGame:
		return "In-Game"
	case StateOnline:
		return "Online"
	case StateOffline:
		return "Offline"
	}
	return "Unknown"
}

// PlayerSummary is one account's presence as reported by GetPlayerSummaries.
type PlayerSummary struct {
	SteamID   string
	Name      string
	AvatarURL string
	State     PlayerState
	AppID     int64
	GameName  string
}

// rawPlayer mirrors the GetPlayerSummaries wire format.
type rawPlayer struct {
	SteamID       string `json:"steamid"`
	PersonaName   string `json:"personaname"`
	AvatarFull    string `json:"avatarfull"`
	PersonaState  int    `json:"personastate"`
	GameID        string `json:"gameid"`
	GameExtraInfo string `json:"gameextrainfo"`
}

type summariesResponse struct {
	Response struct {
		Players []rawPlayer `json:"players"`
	} `json:"response"`
}

// summariesBatchSize is the GetPlayerSummaries request cap imposed by Valve.
const summariesBatchSize = 100

// FetchPlayerSummary fetches a single account's summary.
func (c *Client) FetchPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	m, err := c.FetchPlayerSummaries(ctx, []string{steamID})
	if err != nil {
		return nil, err
	}
	s, ok := m[steamID]
	if !ok {
		return nil, fmt.Errorf("no summary returned for %s", steamID)
	}
	return &s, nil
}

// FetchPlayerSummaries fetches summaries for all given account ids, chunked
// to the API's batch limit. The result is keyed by steamid64; accounts the
// API did not return are simply absent.
func (c *Client) FetchPlayerSummaries(ctx context.Context, steamIDs []string) (map[string]PlayerSummary, error) {
	uniq := dedupe(steamIDs)
	if len(uniq) == 0 {
		return map[string]PlayerSummary{}, nil
	}

	out := make(map[string]PlayerSummary, len(uniq))
	for i := 0; i < len(uniq); i += summariesBatchSize {
		end := i + summariesBatchSize
		if end > len(uniq) {
			end = len(uniq)
		}

		params := url.Values{
			"key":      {c.apiKey},
			"steamids": {strings.Join(uniq[i:end], ",")},
		}
		var resp summariesResponse
		if err := c.getJSON(ctx, c.apiBase+"/ISteamUser/GetPlayerSummaries/v2/", params, nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch player summaries: %w", err)
		}
		for _, p := range resp.Response.Players {
			if p.SteamID == "" {
				continue
			}
			out[p.SteamID] = summarize(p)
		}
	}
	return out, nil
}

// summarize classifies a raw player record into a PlayerSummary.
// An account with a game name or game id is in-game regardless of its
// persona state; persona state 0 is offline, anything else is online.
func summarize(p rawPlayer) PlayerSummary {
	s := PlayerSummary{
		SteamID:   p.SteamID,
		Name:      p.PersonaName,
		AvatarURL: p.AvatarFull,
	}
	if s.Name == "" {
		s.Name = p.SteamID
	}

	appID, _ := strconv.ParseInt(strings.TrimSpace(p.GameID), 10, 64)
	gameName := strings.TrimSpace(p.GameExtraInfo)
	if gameName != "" || appID > 0 {
		s.State = StateInGame
		s.AppID = appID
		s.GameName = gameName
		if s.GameName == "" {
			s.GameName = fmt.Sprintf("App %d", appID)
		}
		return s
	}

	if p.PersonaState == 0 {
		s.State = StateOffline
	} else {
		s.State = StateOnline
	}
	return s
}

// FetchPlaytimeText returns a human-readable total playtime for one app, or
// an empty string when the profile hides owned games or the app is unknown.
func (c *Client) FetchPlaytimeText(ctx context.Context, steamID string, appID int64) (string, error) {
	if steamID == "" || appID <= 0 {
		return "", nil
	}

	params := url.Values{
		"key":                       {c.apiKey},
		"steamid":                   {steamID},
		"include_appinfo":           {"0"},
		"include_played_free_games": {"1"},
	}
	var resp struct {
		Response struct {
			Games []struct {
				AppID           int64 `json:"appid"`
				PlaytimeForever int64 `json:"playtime_forever"`
			} `json:"games"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, c.apiBase+"/IPlayerService/GetOwnedGames/v1/", params, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch owned games: %w", err)
	}

	for _, g := range resp.Response.Games {
		if g.AppID == appID {
			return fmt.Sprintf("%.1f hrs on record", float64(g.PlaytimeForever)/60), nil
		}
	}
	return "", nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
