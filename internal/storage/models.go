package storage

import "github.com/moemoli/steamwatch/internal/steam"

// recentStatesCap bounds the per-binding observation history.
const recentStatesCap = 3

// PendingEndgame is the debounce marker armed when a binding leaves in-game.
// It suppresses the "game ended" notification for one poll cycle so a
// transient network blip does not fire a premature end-of-session event.
type PendingEndgame struct {
	OldAppID     int64             `json:"old_appid"`
	OldGameName  string            `json:"old_game_name"`
	StartTS      int64             `json:"start_ts"`
	PendingState steam.PlayerState `json:"pending_state"`
}

// Binding associates one chat-group member with one watched Steam account.
type Binding struct {
	ID           string              `json:"id"`
	Platform     string              `json:"platform"`
	PlatformID   string              `json:"platform_id"`
	Session      string              `json:"session"`
	GroupID      string              `json:"group_id"`
	MemberID     string              `json:"sender_id"`
	MemberName   string              `json:"sender_name"`
	SteamID      string              `json:"steamid64"`
	SteamName    string              `json:"steam_name"`
	AvatarURL    string              `json:"avatar_url"`
	LastState    steam.PlayerState   `json:"last_state"`
	LastAppID    int64               `json:"last_appid"`
	LastGameName string              `json:"last_game_name"`
	InGameSince  int64               `json:"in_game_since_ts"`
	LastChangeTS int64               `json:"last_change_ts"`
	CreatedTS    int64               `json:"created_ts"`
	RecentStates []steam.PlayerState `json:"recent_states,omitempty"`
	Pending      *PendingEndgame     `json:"pending_endgame,omitempty"`
}

// Clone returns a deep copy of the binding.
func (b *Binding) Clone() *Binding {
	c := *b
	if b.Pending != nil {
		p := *b.Pending
		c.Pending = &p
	}
	if b.RecentStates != nil {
		c.RecentStates = append([]steam.PlayerState(nil), b.RecentStates...)
	}
	return &c
}

// PushRecentState records one observed state, keeping the last three.
func (b *Binding) PushRecentState(s steam.PlayerState) {
	b.RecentStates = append(b.RecentStates, s)
	if len(b.RecentStates) > recentStatesCap {
		b.RecentStates = b.RecentStates[len(b.RecentStates)-recentStatesCap:]
	}
}

// GameSubscription is one chat group's subscription to a game's news feed.
type GameSubscription struct {
	ID          string `json:"id"`
	Platform    string `json:"platform"`
	Session     string `json:"session"`
	GroupID     string `json:"group_id"`
	AppID       int64  `json:"appid"`
	GameName    string `json:"game_name"`
	StoreURL    string `json:"store_url"`
	LastNewsGID string `json:"last_news_gid"`
	CreatedTS   int64  `json:"created_ts"`
}

// Clone returns a copy of the subscription.
func (s *GameSubscription) Clone() *GameSubscription {
	c := *s
	return &c
}
