package watch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/moemoli/steamwatch/internal/steam"
	"github.com/moemoli/steamwatch/internal/storage"
)

// fakeNicknames serves canned member name maps and counts lookups per group.
type fakeNicknames struct {
	mu    sync.Mutex
	nicks map[string]map[string]string // groupID -> memberID -> name
	err   error
	calls map[string]int
}

func (f *fakeNicknames) GroupNicknames(ctx context.Context, platform, platformID, groupID string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[groupID]++
	if f.err != nil {
		return nil, f.err
	}
	return f.nicks[groupID], nil
}

func TestRefreshNicknamesOneLookupPerGroup(t *testing.T) {
	e, _, _, _, _ := newTestEngine(t)
	source := &fakeNicknames{nicks: map[string]map[string]string{
		"g1": {"m1": "alpha", "m2": "beta"},
		"g2": {"m3": "gamma"},
	}}
	e.nicknames = source

	b1 := testBinding(steam.StateOnline, 0, "")
	b2 := testBinding(steam.StateOnline, 0, "")
	b2.ID, b2.MemberID = "b2", "m2"
	b3 := testBinding(steam.StateOnline, 0, "")
	b3.ID, b3.MemberID, b3.GroupID = "b3", "m3", "g2"
	bindings := []*storage.Binding{b1, b2, b3}

	e.refreshNicknames(context.Background(), bindings)

	if source.calls["g1"] != 1 || source.calls["g2"] != 1 {
		t.Errorf("lookups per group = %v, want exactly one per distinct group", source.calls)
	}
	if b1.MemberName != "alpha" || b2.MemberName != "beta" || b3.MemberName != "gamma" {
		t.Errorf("names = %q, %q, %q", b1.MemberName, b2.MemberName, b3.MemberName)
	}
}

func TestRefreshNicknamesErrorKeepsCachedName(t *testing.T) {
	e, _, _, _, _ := newTestEngine(t)
	e.nicknames = &fakeNicknames{err: errors.New("member list unavailable")}

	b := testBinding(steam.StateOnline, 0, "")
	e.refreshNicknames(context.Background(), []*storage.Binding{b})

	if b.MemberName != "member" {
		t.Errorf("MemberName = %q, want cached value kept on lookup failure", b.MemberName)
	}
}

func TestRefreshNicknamesBlankNickKeepsCachedName(t *testing.T) {
	e, _, _, _, _ := newTestEngine(t)
	e.nicknames = &fakeNicknames{nicks: map[string]map[string]string{
		"g1": {"m1": "   ", "m2": "beta"},
	}}

	b1 := testBinding(steam.StateOnline, 0, "")
	b2 := testBinding(steam.StateOnline, 0, "")
	b2.ID, b2.MemberID = "b2", "m2"
	b3 := testBinding(steam.StateOnline, 0, "")
	b3.ID, b3.MemberID = "b3", "m3" // absent from the member list

	e.refreshNicknames(context.Background(), []*storage.Binding{b1, b2, b3})

	if b1.MemberName != "member" {
		t.Errorf("whitespace nick overwrote the cached name: %q", b1.MemberName)
	}
	if b2.MemberName != "beta" {
		t.Errorf("b2 MemberName = %q, want beta", b2.MemberName)
	}
	if b3.MemberName != "member" {
		t.Errorf("missing member lost its cached name: %q", b3.MemberName)
	}
}

func TestPollCarriesRefreshedNickIntoEvents(t *testing.T) {
	e, api, renderer, _, store := newTestEngine(t)
	e.nicknames = &fakeNicknames{nicks: map[string]map[string]string{
		"g1": {"m1": "fresh nick"},
	}}

	b := testBinding(steam.StateOnline, 0, "")
	e.bindings = []*storage.Binding{b}
	api.setSummary(b.SteamID, steam.PlayerSummary{
		SteamID: b.SteamID, Name: "player", State: steam.StateInGame,
		AppID: 730, GameName: "Counter-Strike 2",
	})

	if err := e.pollPlayersOnce(context.Background()); err != nil {
		t.Fatalf("pollPlayersOnce: %v", err)
	}

	if len(renderer.batches) != 1 || len(renderer.batches[0]) != 1 {
		t.Fatalf("batches = %v, want one single-entry card", renderer.batches)
	}
	if got := renderer.batches[0][0].DisplayName; got != "player(fresh nick)" {
		t.Errorf("DisplayName = %q, want the refreshed nick", got)
	}

	bindings, _, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bindings[0].MemberName != "fresh nick" {
		t.Errorf("persisted MemberName = %q, want fresh nick", bindings[0].MemberName)
	}
}
