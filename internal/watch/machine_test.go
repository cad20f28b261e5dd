package watch

import (
	"testing"
	"time"

	"github.com/moemoli/steamwatch/internal/steam"
	"github.com/moemoli/steamwatch/internal/storage"
)

func testBinding(state steam.PlayerState, appID int64, game string) *storage.Binding {
	return &storage.Binding{
		ID:           "b1",
		Platform:     "discord",
		Session:      "chan1",
		GroupID:      "g1",
		MemberID:     "m1",
		MemberName:   "member",
		SteamID:      "76561198000000001",
		SteamName:    "player",
		LastState:    state,
		LastAppID:    appID,
		LastGameName: game,
	}
}

func TestClassifyBaselineEmitsNothing(t *testing.T) {
	b := testBinding(steam.StateUnset, 0, "")
	now := time.Unix(1000, 0)

	ev := Classify(b, Observation{State: steam.StateOnline}, now)

	if ev != nil {
		t.Fatalf("baseline observation emitted event %+v, want none", ev)
	}
	if b.LastState != steam.StateOnline {
		t.Errorf("LastState = %q, want online", b.LastState)
	}
	if b.LastChangeTS != 1000 {
		t.Errorf("LastChangeTS = %d, want 1000", b.LastChangeTS)
	}
}

func TestClassifyOnlineToInGame(t *testing.T) {
	b := testBinding(steam.StateOnline, 0, "")
	now := time.Unix(2000, 0)

	ev := Classify(b, Observation{State: steam.StateInGame, AppID: 730, GameName: "Counter-Strike 2"}, now)

	if ev == nil {
		t.Fatal("expected a change event")
	}
	if ev.OldState != steam.StateOnline || ev.NewState != steam.StateInGame {
		t.Errorf("transition = %q -> %q, want online -> in_game", ev.OldState, ev.NewState)
	}
	if ev.NewAppID != 730 || ev.NewGame != "Counter-Strike 2" {
		t.Errorf("new game = %d %q", ev.NewAppID, ev.NewGame)
	}
	if ev.Jitter {
		t.Error("direct transition must not be tagged jitter")
	}
	if b.InGameSince != 2000 {
		t.Errorf("InGameSince = %d, want 2000", b.InGameSince)
	}
}

func TestClassifyEndGameDebounce(t *testing.T) {
	b := testBinding(steam.StateInGame, 730, "Counter-Strike 2")
	b.InGameSince = 1000

	// First cycle: leaving in-game arms the marker, emits nothing.
	ev := Classify(b, Observation{State: steam.StateOffline}, time.Unix(5000, 0))
	if ev != nil {
		t.Fatalf("first exit cycle emitted event %+v, want none", ev)
	}
	if b.Pending == nil {
		t.Fatal("expected pending end-game marker")
	}
	if b.Pending.OldAppID != 730 || b.Pending.StartTS != 1000 || b.Pending.PendingState != steam.StateOffline {
		t.Errorf("marker = %+v", b.Pending)
	}
	if b.LastState != steam.StateOffline {
		t.Errorf("LastState = %q, want offline", b.LastState)
	}

	// Second cycle, still offline: the end is confirmed.
	ev = Classify(b, Observation{State: steam.StateOffline}, time.Unix(5060, 0))
	if ev == nil {
		t.Fatal("expected confirmed end-game event")
	}
	if ev.OldState != steam.StateInGame || ev.NewState != steam.StateOffline {
		t.Errorf("transition = %q -> %q, want in_game -> offline", ev.OldState, ev.NewState)
	}
	if ev.OldAppID != 730 || ev.OldGame != "Counter-Strike 2" {
		t.Errorf("old game = %d %q", ev.OldAppID, ev.OldGame)
	}
	if ev.SessionSecs != 5060-1000 {
		t.Errorf("SessionSecs = %d, want %d", ev.SessionSecs, 5060-1000)
	}
	if ev.Jitter {
		t.Error("confirmed end must not be tagged jitter")
	}
	if b.Pending != nil {
		t.Error("marker not cleared after confirmation")
	}
	if b.InGameSince != 0 {
		t.Errorf("InGameSince = %d, want 0", b.InGameSince)
	}
}

func TestClassifyJitterResumesSession(t *testing.T) {
	b := testBinding(steam.StateInGame, 730, "Counter-Strike 2")
	b.InGameSince = 1000

	if ev := Classify(b, Observation{State: steam.StateOffline}, time.Unix(5000, 0)); ev != nil {
		t.Fatalf("exit cycle emitted event %+v, want none", ev)
	}

	ev := Classify(b, Observation{State: steam.StateInGame, AppID: 730, GameName: "Counter-Strike 2"}, time.Unix(5060, 0))
	if ev == nil {
		t.Fatal("expected jitter event")
	}
	if !ev.Jitter {
		t.Error("event not tagged jitter")
	}
	if ev.OldState != steam.StateInGame || ev.NewState != steam.StateInGame {
		t.Errorf("transition = %q -> %q, want in_game -> in_game", ev.OldState, ev.NewState)
	}
	if ev.OldAppID != 730 || ev.OldGame != "Counter-Strike 2" {
		t.Errorf("old side = %d %q, want marker values", ev.OldAppID, ev.OldGame)
	}
	if ev.SessionSecs != 0 {
		t.Errorf("SessionSecs = %d, want 0 for jitter", ev.SessionSecs)
	}
	if b.Pending != nil {
		t.Error("marker not cleared after jitter resolution")
	}
}

func TestClassifyDoubleToggleConfirmsEnd(t *testing.T) {
	b := testBinding(steam.StateInGame, 730, "Counter-Strike 2")
	b.InGameSince = 1000

	if ev := Classify(b, Observation{State: steam.StateOffline}, time.Unix(5000, 0)); ev != nil {
		t.Fatalf("exit cycle emitted event %+v, want none", ev)
	}

	// The state flips offline -> online before stabilizing; that still
	// confirms the end, with duration counted from the original marker.
	ev := Classify(b, Observation{State: steam.StateOnline}, time.Unix(5120, 0))
	if ev == nil {
		t.Fatal("expected confirmed end-game event")
	}
	if ev.Jitter {
		t.Error("toggle confirmation must not be tagged jitter")
	}
	if ev.NewState != steam.StateOnline {
		t.Errorf("NewState = %q, want online", ev.NewState)
	}
	if ev.SessionSecs != 5120-1000 {
		t.Errorf("SessionSecs = %d, want %d", ev.SessionSecs, 5120-1000)
	}
}

func TestClassifyGameSwitchEmitsImmediately(t *testing.T) {
	b := testBinding(steam.StateInGame, 730, "Counter-Strike 2")
	b.InGameSince = 1000

	ev := Classify(b, Observation{State: steam.StateInGame, AppID: 570, GameName: "Dota 2"}, time.Unix(4000, 0))
	if ev == nil {
		t.Fatal("expected a change event for the app switch")
	}
	if ev.OldAppID != 730 || ev.NewAppID != 570 {
		t.Errorf("appid transition = %d -> %d, want 730 -> 570", ev.OldAppID, ev.NewAppID)
	}
	if b.Pending != nil {
		t.Error("app switch must not arm the end-game marker")
	}
	if b.InGameSince != 4000 {
		t.Errorf("InGameSince = %d, want reset to 4000", b.InGameSince)
	}
}

func TestClassifyNoChangeEmitsNothing(t *testing.T) {
	b := testBinding(steam.StateOnline, 0, "")
	b.LastChangeTS = 1234

	ev := Classify(b, Observation{State: steam.StateOnline}, time.Unix(9000, 0))
	if ev != nil {
		t.Fatalf("no-op observation emitted event %+v", ev)
	}
	if b.LastChangeTS != 1234 {
		t.Errorf("LastChangeTS = %d, want unchanged 1234", b.LastChangeTS)
	}
}

func TestClassifyKeepsBoundedStateHistory(t *testing.T) {
	b := testBinding(steam.StateUnset, 0, "")

	states := []steam.PlayerState{steam.StateOnline, steam.StateInGame, steam.StateOnline, steam.StateOffline}
	for i, s := range states {
		Classify(b, Observation{State: s, AppID: 730}, time.Unix(int64(1000+i*60), 0))
	}

	if len(b.RecentStates) != 3 {
		t.Fatalf("RecentStates length = %d, want 3", len(b.RecentStates))
	}
	want := []steam.PlayerState{steam.StateInGame, steam.StateOnline, steam.StateOffline}
	for i, s := range want {
		if b.RecentStates[i] != s {
			t.Errorf("RecentStates[%d] = %q, want %q", i, b.RecentStates[i], s)
		}
	}
}
