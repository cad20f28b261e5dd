package watch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/moemoli/steamwatch/internal/render"
	"github.com/moemoli/steamwatch/internal/steam"
	"github.com/moemoli/steamwatch/internal/storage"
)

// pollNewsOnce checks every game subscription for a new announcement and
// pushes a news card when the latest item's gid moved. The stored gid always
// advances, so one bad fetch never causes a repeat push later.
func (e *Engine) pollNewsOnce(ctx context.Context) error {
	e.mu.Lock()
	subs := make([]*storage.GameSubscription, 0, len(e.subs))
	for _, s := range e.subs {
		subs = append(subs, s.Clone())
	}
	e.mu.Unlock()

	if len(subs) == 0 {
		return nil
	}

	updated := make(map[string]*storage.GameSubscription, len(subs))
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		updated[sub.ID] = sub
		if sub.AppID <= 0 {
			continue
		}

		latest, err := e.api.FetchLatestNews(ctx, sub.AppID)
		if err != nil {
			slog.Warn("Failed to fetch news", "appid", sub.AppID, "error", err)
			continue
		}
		if latest == nil {
			continue
		}

		newGID := strings.TrimSpace(latest.GID)
		if sub.LastNewsGID != "" && newGID != "" && newGID != sub.LastNewsGID {
			e.pushNews(ctx, sub, latest)
		}
		if newGID != "" {
			sub.LastNewsGID = newGID
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.subs {
		if u, ok := updated[cur.ID]; ok {
			e.subs[i] = u
		}
	}
	return e.persistLocked()
}

// pushNews renders and dispatches one announcement. A failed render still
// delivers the plain-text notice.
func (e *Engine) pushNews(ctx context.Context, sub *storage.GameSubscription, item *steam.NewsItem) {
	var cover image.Image
	if img, err := e.api.FetchCover(ctx, sub.AppID); err == nil {
		cover = img
	}

	path, err := e.renderer.RenderNewsCard(render.NewsCard{
		AppID:    sub.AppID,
		GameName: sub.GameName,
		Title:    item.Title,
		Author:   item.Author,
		Date:     item.Date,
		Contents: item.Contents,
		Cover:    cover,
	})
	if err != nil {
		slog.Warn("Failed to render news card", "appid", sub.AppID, "error", err)
		path = ""
	}

	text := fmt.Sprintf("[Steam News] %s\n%s", sub.GameName, item.Title)
	if item.URL != "" {
		text += "\n" + item.URL
	}
	if err := e.dispatcher.SendTextWithImage(sub.Session, text, path); err != nil {
		slog.Warn("Failed to send news", "session", sub.Session, "error", err)
	}
}
