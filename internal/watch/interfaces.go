// Package watch implements the polling and state-transition engine: it
// periodically fetches presence for all bound Steam accounts, diffs against
// persisted state, debounces end-of-game jitter, batches change events by
// destination session and drives enrichment, rendering and dispatch.
package watch

import (
	"context"
	"image"

	"github.com/moemoli/steamwatch/internal/render"
	"github.com/moemoli/steamwatch/internal/steam"
)

// SteamAPI is the data-fetching collaborator.
type SteamAPI interface {
	FetchPlayerSummaries(ctx context.Context, steamIDs []string) (map[string]steam.PlayerSummary, error)
	FetchPlaytimeText(ctx context.Context, steamID string, appID int64) (string, error)
	FetchCover(ctx context.Context, appID int64) (image.Image, error)
	FetchImage(ctx context.Context, url string) (image.Image, error)
	FetchLatestNews(ctx context.Context, appID int64) (*steam.NewsItem, error)
}

// Renderer is the card-drawing collaborator.
type Renderer interface {
	RenderBatchStatusCard(entries []render.Entry) (string, error)
	RenderNewsCard(card render.NewsCard) (string, error)
}

// Dispatcher delivers rendered notifications to a destination session.
// An empty imagePath on SendTextWithImage sends the text alone.
type Dispatcher interface {
	SendImage(session, imagePath string) error
	SendTextWithImage(session, text, imagePath string) error
}

// NicknameSource resolves live group member display names. Implementations
// return an empty map for platforms they do not serve.
type NicknameSource interface {
	GroupNicknames(ctx context.Context, platform, platformID, groupID string) (map[string]string, error)
}

// ChangeEvent is one detected state transition for a binding. It lives for
// a single poll iteration: built during classification, consumed by
// enrichment and rendering, then discarded.
type ChangeEvent struct {
	SteamName   string
	GroupNick   string
	SteamID     string
	AvatarURL   string
	OldState    steam.PlayerState
	NewState    steam.PlayerState
	OldAppID    int64
	NewAppID    int64
	OldGame     string
	NewGame     string
	SessionSecs int64
	Jitter      bool
}
