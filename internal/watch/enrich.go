package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moemoli/steamwatch/internal/llm"
	"github.com/moemoli/steamwatch/internal/render"
	"github.com/moemoli/steamwatch/internal/steam"
)

// commentTimeout bounds one LLM commentary call.
const commentTimeout = 15 * time.Second

// pushSessionChanges enriches every change event for one destination session
// in parallel, renders them onto a single batched card and dispatches it.
// Entry order matches event order so the rendered card is deterministic.
func (e *Engine) pushSessionChanges(ctx context.Context, session string, events []*ChangeEvent) {
	entries := make([]render.Entry, len(events))

	g, gctx := errgroup.WithContext(ctx)
	for i, ev := range events {
		i, ev := i, ev
		g.Go(func() error {
			// Enrichment failures degrade single fields, never the batch.
			entries[i] = e.buildEntry(gctx, ev)
			return nil
		})
	}
	_ = g.Wait()

	path, err := e.renderer.RenderBatchStatusCard(entries)
	if err != nil {
		slog.Warn("Failed to render status card", "session", session, "error", err)
		return
	}
	if err := e.dispatcher.SendImage(session, path); err != nil {
		slog.Warn("Failed to send status card", "session", session, "error", err)
	}
}

// buildEntry turns one change event into a fully enriched card entry.
// Every fetched field falls back to its zero value on failure.
func (e *Engine) buildEntry(ctx context.Context, ev *ChangeEvent) render.Entry {
	displayName := ev.SteamName
	if ev.GroupNick != "" {
		displayName = fmt.Sprintf("%s(%s)", ev.SteamName, ev.GroupNick)
	}

	entry := render.Entry{
		DisplayName: displayName,
		NewState:    ev.NewState,
	}
	if ev.AvatarURL != "" {
		if img, err := e.api.FetchImage(ctx, ev.AvatarURL); err == nil {
			entry.Avatar = img
		}
	}

	switch {
	case ev.NewState == steam.StateInGame && ev.NewAppID > 0:
		entry.GameName = ev.NewGame
		if text, err := e.api.FetchPlaytimeText(ctx, ev.SteamID, ev.NewAppID); err == nil {
			entry.PlaytimeText = text
		}
		if cover, err := e.api.FetchCover(ctx, ev.NewAppID); err == nil {
			entry.Cover = cover
		}
		if ev.Jitter {
			entry.StatusDesc = "Reconnected to " + entry.GameName
		} else {
			entry.StatusDesc = "Started playing " + entry.GameName
		}

	case ev.OldState == steam.StateInGame &&
		(ev.NewState == steam.StateOnline || ev.NewState == steam.StateOffline):
		entry.GameName = ev.OldGame
		if ev.OldAppID > 0 {
			if cover, err := e.api.FetchCover(ctx, ev.OldAppID); err == nil {
				entry.Cover = cover
			}
		}
		if ev.SessionSecs > 0 {
			entry.PlaytimeText = "Session length: " + FormatDuration(ev.SessionSecs)
		} else {
			entry.PlaytimeText = "Session length: unknown"
		}
		entry.StatusDesc = fmt.Sprintf("Stopped playing %s, now %s", entry.GameName, ev.NewState.Text())
		entry.CommentText = e.generateComment(ctx, displayName, entry.GameName, entry.PlaytimeText)

	default:
		entry.StatusDesc = fmt.Sprintf("%s -> %s", ev.OldState.Text(), ev.NewState.Text())
	}

	return entry
}

// generateComment asks the commenter for one remark about a finished
// session, with a hard timeout. Any failure yields an empty string.
func (e *Engine) generateComment(ctx context.Context, displayName, gameName, durationText string) string {
	if e.commenter == nil {
		return ""
	}

	cctx, cancel := context.WithTimeout(ctx, commentTimeout)
	defer cancel()

	text, err := e.commenter.Comment(cctx, displayName, gameName, durationText)
	if err != nil {
		slog.Debug("Comment generation failed", "error", err)
		return ""
	}
	return llm.Sanitize(text)
}

// FormatDuration renders an elapsed time like "1h 23m", "5m 10s" or "42s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
