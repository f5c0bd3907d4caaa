// Package interaction keeps per-node UI state apart from the fetched comments, keyed
// by "author/permlink", so a full refetch never disturbs it.
package interaction

import (
	"context"
	"sync"
)

// Phase is the write state machine of one node.
type Phase string

const (
	PhaseIdle        Phase = ""
	PhaseSubmitting  Phase = "submitting"
	PhaseReconciling Phase = "reconciling"
)

// Flags is the ephemeral state of one node. The zero value is an expanded,
// idle node with nothing open.
type Flags struct {
	Collapsed      bool   `json:"collapsed,omitempty"`
	BodyExpanded   bool   `json:"body_expanded,omitempty"`
	VoteSliderOpen bool   `json:"vote_slider_open,omitempty"`
	ComposerOpen   bool   `json:"composer_open,omitempty"`
	Draft          string `json:"draft,omitempty"`
	Phase          Phase  `json:"phase,omitempty"`
	Voted          bool   `json:"voted,omitempty"`
	LastError      string `json:"last_error,omitempty"`
}

func (f Flags) Busy() bool {
	return f.Phase == PhaseSubmitting
}

// Store holds Flags for one viewer.
type Store interface {
	Get(ctx context.Context, key string) (Flags, error)
	Update(ctx context.Context, key string, fn func(*Flags)) error
	Snapshot(ctx context.Context) (map[string]Flags, error)
	// Reset discards everything.
	Reset(ctx context.Context) error
	// Bind ties the store to the viewed root, discarding everything when it
	// differs from the root bound before. It reports whether it discarded.
	Bind(ctx context.Context, root string) (bool, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	root  string
	flags map[string]Flags
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]Flags)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Flags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[key], nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(*Flags)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.flags[key]
	fn(&f)
	if f == (Flags{}) {
		delete(s.flags, key)
		return nil
	}
	s.flags[key] = f
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (map[string]Flags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Flags, len(s.flags))
	for k, v := range s.flags {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	s.root = ""
	s.flags = make(map[string]Flags)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Bind(_ context.Context, root string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == root {
		return false, nil
	}
	s.root = root
	s.flags = make(map[string]Flags)
	return true, nil
}
