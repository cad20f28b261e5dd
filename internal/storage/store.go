package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// document is the single durable representation of all watch state.
type document struct {
	Bindings          []*Binding          `json:"bindings"`
	GameSubscriptions []*GameSubscription `json:"game_subscriptions"`
}

// Store persists bindings and game subscriptions as one JSON document.
// The document is loaded whole at startup and rewritten whole after any
// mutation; writes replace the file atomically so a crash never leaves a
// half-written state behind.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// EnsureDirs creates the data and card directories.
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{s.baseDir, s.CardsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return nil
}

// CardsDir is where rendered card images are written.
func (s *Store) CardsDir() string {
	return filepath.Join(s.baseDir, "cards")
}

func (s *Store) stateFile() string {
	return filepath.Join(s.baseDir, "state.json")
}

// Load reads the state document. A missing or malformed file yields empty
// lists, never an error: stale state is recoverable, a crashed bot is not.
func (s *Store) Load() ([]*Binding, []*GameSubscription, error) {
	data, err := os.ReadFile(s.stateFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("State file is malformed, starting empty", "error", err)
		return nil, nil, nil
	}

	bindings := doc.Bindings[:0:0]
	for _, b := range doc.Bindings {
		if b == nil || b.ID == "" {
			continue
		}
		if len(b.RecentStates) > recentStatesCap {
			b.RecentStates = b.RecentStates[len(b.RecentStates)-recentStatesCap:]
		}
		bindings = append(bindings, b)
	}
	subs := doc.GameSubscriptions[:0:0]
	for _, sub := range doc.GameSubscriptions {
		if sub == nil || sub.ID == "" {
			continue
		}
		subs = append(subs, sub)
	}
	return bindings, subs, nil
}

// Save rewrites the whole state document atomically.
func (s *Store) Save(bindings []*Binding, subs []*GameSubscription) error {
	doc := document{
		Bindings:          bindings,
		GameSubscriptions: subs,
	}
	if doc.Bindings == nil {
		doc.Bindings = []*Binding{}
	}
	if doc.GameSubscriptions == nil {
		doc.GameSubscriptions = []*GameSubscription{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp := s.stateFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.stateFile()); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
