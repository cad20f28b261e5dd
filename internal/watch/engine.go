package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moemoli/steamwatch/internal/llm"
	"github.com/moemoli/steamwatch/internal/steam"
	"github.com/moemoli/steamwatch/internal/storage"
)

const (
	defaultInterval = 60 * time.Second
	minInterval     = 10 * time.Second
	// retryDelay replaces the normal interval after a failed cycle.
	retryDelay = 20 * time.Second
)

// ErrSteamIDTaken is returned when a Steam account is already bound to a
// different member of the same group.
var ErrSteamIDTaken = errors.New("steam account already bound to another member in this group")

// ErrAlreadySubscribed is returned for a duplicate game subscription.
var ErrAlreadySubscribed = errors.New("group already subscribed to this game")

// Options wires an Engine to its collaborators.
type Options struct {
	API        SteamAPI
	Store      *storage.Store
	Renderer   Renderer
	Dispatcher Dispatcher
	Nicknames  NicknameSource
	Commenter  llm.Commenter
	Interval   time.Duration
}

// Engine owns the binding and subscription lists and runs the poll loop.
// Commands and the loop share one lock; everything slow (HTTP, rendering)
// happens on copied-out snapshots with the lock released.
type Engine struct {
	api        SteamAPI
	store      *storage.Store
	renderer   Renderer
	dispatcher Dispatcher
	nicknames  NicknameSource
	commenter  llm.Commenter
	interval   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	bindings []*storage.Binding
	subs     []*storage.GameSubscription
}

// NewEngine creates an engine. The interval is clamped to a 10s minimum.
func NewEngine(opts Options) *Engine {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	if interval < minInterval {
		interval = minInterval
	}
	return &Engine{
		api:        opts.API,
		store:      opts.Store,
		renderer:   opts.Renderer,
		dispatcher: opts.Dispatcher,
		nicknames:  opts.Nicknames,
		commenter:  opts.Commenter,
		interval:   interval,
		now:        time.Now,
	}
}

// LoadState populates the in-memory lists from the persistent store.
func (e *Engine) LoadState() error {
	bindings, subs, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	e.mu.Lock()
	e.bindings = bindings
	e.subs = subs
	e.mu.Unlock()

	slog.Info("Loaded watch state", "bindings", len(bindings), "subscriptions", len(subs))
	return nil
}

// Run executes the poll loop until ctx is cancelled. A failed cycle is
// logged and retried after a short fixed delay instead of the full interval.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("Starting watch engine", "interval", e.interval)

	for {
		delay := e.interval
		if err := e.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("Watch engine stopped")
				return
			}
			slog.Warn("Poll cycle failed", "error", err)
			delay = retryDelay
		}

		select {
		case <-ctx.Done():
			slog.Info("Watch engine stopped")
			return
		case <-time.After(delay):
		}
	}
}

// runCycle performs one full poll pass: player status, then game news.
func (e *Engine) runCycle(ctx context.Context) error {
	if err := e.pollPlayersOnce(ctx); err != nil {
		return err
	}
	return e.pollNewsOnce(ctx)
}

// pollPlayersOnce fetches presence for every binding, classifies transitions
// and pushes one batched status card per destination session.
func (e *Engine) pollPlayersOnce(ctx context.Context) error {
	e.mu.Lock()
	bindings := make([]*storage.Binding, 0, len(e.bindings))
	for _, b := range e.bindings {
		bindings = append(bindings, b.Clone())
	}
	e.mu.Unlock()

	if len(bindings) == 0 {
		return nil
	}

	e.refreshNicknames(ctx, bindings)

	ids := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.SteamID != "" {
			ids = append(ids, b.SteamID)
		}
	}

	summaries, err := e.api.FetchPlayerSummaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to fetch player summaries: %w", err)
	}

	now := e.now()
	updated := make(map[string]*storage.Binding, len(bindings))
	eventsBySession := make(map[string][]*ChangeEvent)

	for _, b := range bindings {
		updated[b.ID] = b

		summary, ok := summaries[b.SteamID]
		if !ok {
			// Degrade this binding only: keep its previous values.
			continue
		}
		if summary.Name != "" {
			b.SteamName = summary.Name
		}
		if summary.AvatarURL != "" {
			b.AvatarURL = summary.AvatarURL
		}

		ev := Classify(b, Observation{
			State:    summary.State,
			AppID:    summary.AppID,
			GameName: summary.GameName,
		}, now)
		if ev != nil && b.Session != "" {
			eventsBySession[b.Session] = append(eventsBySession[b.Session], ev)
		}
	}

	for session, events := range eventsBySession {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.pushSessionChanges(ctx, session, events)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.bindings {
		if u, ok := updated[cur.ID]; ok {
			e.bindings[i] = u
		}
	}
	return e.persistLocked()
}

// persistLocked writes the current lists through the store. Callers must
// hold the lock.
func (e *Engine) persistLocked() error {
	return e.store.Save(e.bindings, e.subs)
}

// BindRequest carries everything needed to create or replace a binding.
type BindRequest struct {
	Platform   string
	PlatformID string
	Session    string
	GroupID    string
	MemberID   string
	MemberName string
	Summary    steam.PlayerSummary
}

// Bind creates the caller's binding in the group, replacing an earlier one
// by the same member. The fresh summary seeds the state-machine baseline so
// the first poll cycle emits nothing for it.
func (e *Engine) Bind(req BindRequest) (*storage.Binding, error) {
	nowTS := e.now().Unix()

	b := &storage.Binding{
		ID:           uuid.NewString(),
		Platform:     req.Platform,
		PlatformID:   req.PlatformID,
		Session:      req.Session,
		GroupID:      req.GroupID,
		MemberID:     req.MemberID,
		MemberName:   req.MemberName,
		SteamID:      req.Summary.SteamID,
		SteamName:    req.Summary.Name,
		AvatarURL:    req.Summary.AvatarURL,
		LastState:    req.Summary.State,
		LastAppID:    req.Summary.AppID,
		LastGameName: req.Summary.GameName,
		LastChangeTS: nowTS,
		CreatedTS:    nowTS,
	}
	if req.Summary.State == steam.StateInGame && req.Summary.AppID > 0 {
		b.InGameSince = nowTS
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, old := range e.bindings {
		if old.Platform == req.Platform && old.GroupID == req.GroupID &&
			old.MemberID != req.MemberID && old.SteamID == b.SteamID {
			return nil, ErrSteamIDTaken
		}
	}

	replaced := false
	for i, old := range e.bindings {
		if old.Platform == req.Platform && old.GroupID == req.GroupID &&
			old.MemberID == req.MemberID {
			b.ID = old.ID
			b.CreatedTS = old.CreatedTS
			e.bindings[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		e.bindings = append(e.bindings, b)
	}

	if err := e.persistLocked(); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Unbind removes the member's binding in the group. Reports whether one
// existed.
func (e *Engine) Unbind(platform, groupID, memberID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, b := range e.bindings {
		if b.Platform == platform && b.GroupID == groupID && b.MemberID == memberID {
			e.bindings = append(e.bindings[:i], e.bindings[i+1:]...)
			return true, e.persistLocked()
		}
	}
	return false, nil
}

// SubscribeRequest carries everything needed to create a subscription.
type SubscribeRequest struct {
	Platform    string
	Session     string
	GroupID     string
	App         steam.App
	LastNewsGID string
}

// Subscribe adds a game news subscription for the group. At most one
// subscription exists per (platform, group, appid).
func (e *Engine) Subscribe(req SubscribeRequest) (*storage.GameSubscription, error) {
	sub := &storage.GameSubscription{
		ID:          uuid.NewString(),
		Platform:    req.Platform,
		Session:     req.Session,
		GroupID:     req.GroupID,
		AppID:       req.App.AppID,
		GameName:    req.App.Name,
		StoreURL:    req.App.URL,
		LastNewsGID: req.LastNewsGID,
		CreatedTS:   e.now().Unix(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, old := range e.subs {
		if old.Platform == req.Platform && old.GroupID == req.GroupID && old.AppID == req.App.AppID {
			return nil, ErrAlreadySubscribed
		}
	}
	e.subs = append(e.subs, sub)

	if err := e.persistLocked(); err != nil {
		return nil, err
	}
	return sub.Clone(), nil
}

// GroupOverview returns copies of the group's bindings and subscriptions.
func (e *Engine) GroupOverview(platform, groupID string) ([]*storage.Binding, []*storage.GameSubscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var bindings []*storage.Binding
	for _, b := range e.bindings {
		if b.Platform == platform && b.GroupID == groupID {
			bindings = append(bindings, b.Clone())
		}
	}
	var subs []*storage.GameSubscription
	for _, s := range e.subs {
		if s.Platform == platform && s.GroupID == groupID {
			subs = append(subs, s.Clone())
		}
	}
	return bindings, subs
}
