package watch

import (
	"time"

	"github.com/moemoli/steamwatch/internal/steam"
	"github.com/moemoli/steamwatch/internal/storage"
)

// Observation is one freshly fetched presence sample for a binding.
type Observation struct {
	State    steam.PlayerState
	AppID    int64
	GameName string
}

// Classify applies one observation to a binding and returns the externally
// visible change event, or nil. The binding is mutated in place: last-known
// state fields are advanced to the observation and the pending end-game
// marker is armed, resolved or cleared.
//
// Leaving in-game does not emit immediately. The transition is parked in a
// pending marker for one cycle: if the next observation is in-game again the
// drop was network jitter and a single jitter-tagged event is emitted; any
// other next observation confirms the end of the session, with its duration
// measured from the marker's start timestamp.
func Classify(b *storage.Binding, obs Observation, now time.Time) *ChangeEvent {
	nowTS := now.Unix()
	oldState := b.LastState
	oldAppID := b.LastAppID
	oldGame := b.LastGameName

	b.PushRecentState(obs.State)

	changed := obs.State != oldState ||
		(obs.State == steam.StateInGame && obs.AppID != oldAppID)

	var ev *ChangeEvent

	switch {
	case oldState == steam.StateUnset:
		// First observation establishes the baseline silently.

	case b.Pending != nil:
		marker := b.Pending
		b.Pending = nil
		if obs.State == steam.StateInGame {
			// The intervening online/offline sample was jitter: report one
			// direct in-game to in-game transition from the pre-jitter game.
			ev = &ChangeEvent{
				OldState: steam.StateInGame,
				OldAppID: marker.OldAppID,
				OldGame:  marker.OldGameName,
				Jitter:   true,
			}
		} else {
			// Unchanged or toggled again between online and offline: either
			// way the session is over. Duration counts from the marker.
			secs := nowTS - marker.StartTS
			if secs < 0 {
				secs = 0
			}
			ev = &ChangeEvent{
				OldState:    steam.StateInGame,
				OldAppID:    marker.OldAppID,
				OldGame:     marker.OldGameName,
				SessionSecs: secs,
			}
			b.InGameSince = 0
		}

	case oldState == steam.StateInGame &&
		(obs.State == steam.StateOnline || obs.State == steam.StateOffline):
		// Looks like the game ended; wait one more cycle before saying so.
		start := b.InGameSince
		if start == 0 {
			start = b.LastChangeTS
		}
		if start == 0 {
			start = nowTS
		}
		b.Pending = &storage.PendingEndgame{
			OldAppID:     oldAppID,
			OldGameName:  oldGame,
			StartTS:      start,
			PendingState: obs.State,
		}

	case changed:
		ev = &ChangeEvent{
			OldState: oldState,
			OldAppID: oldAppID,
			OldGame:  oldGame,
		}
	}

	if ev != nil {
		ev.SteamName = b.SteamName
		ev.GroupNick = b.MemberName
		ev.SteamID = b.SteamID
		ev.AvatarURL = b.AvatarURL
		ev.NewState = obs.State
		ev.NewAppID = obs.AppID
		ev.NewGame = obs.GameName
	}

	if obs.State == steam.StateInGame && obs.AppID > 0 &&
		(oldState != steam.StateInGame || obs.AppID != oldAppID) {
		b.InGameSince = nowTS
	}
	if oldState == steam.StateUnset || changed || ev != nil {
		b.LastChangeTS = nowTS
	}
	b.LastState = obs.State
	b.LastAppID = obs.AppID
	b.LastGameName = obs.GameName

	return ev
}
