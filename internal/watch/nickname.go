package watch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/moemoli/steamwatch/internal/storage"
)

// refreshNicknames updates each binding's cached member display name from
// the platform's live group member list, one lookup per distinct group.
// This is enrichment only: every failure keeps the previous cached name.
func (e *Engine) refreshNicknames(ctx context.Context, bindings []*storage.Binding) {
	if e.nicknames == nil {
		return
	}

	type groupKey struct {
		platform   string
		platformID string
		groupID    string
	}
	grouped := make(map[groupKey][]*storage.Binding)
	for _, b := range bindings {
		if b.GroupID == "" {
			continue
		}
		key := groupKey{b.Platform, b.PlatformID, b.GroupID}
		grouped[key] = append(grouped[key], b)
	}

	for key, members := range grouped {
		nicks, err := e.nicknames.GroupNicknames(ctx, key.platform, key.platformID, key.groupID)
		if err != nil {
			slog.Debug("Failed to fetch group member list", "group", key.groupID, "error", err)
			continue
		}
		if len(nicks) == 0 {
			continue
		}
		for _, b := range members {
			if name := strings.TrimSpace(nicks[b.MemberID]); name != "" {
				b.MemberName = name
			}
		}
	}
}
