package discussion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"threadkit/internal/interaction"
	"threadkit/internal/models"
)

var (
	// ErrFetchFailed is returned by View while the last fetch failed. Retry with Refresh.
	ErrFetchFailed = errors.New("discussion fetch failed")
	// ErrStaleFetch reports a fetch that finished after the viewed root changed; its result was discarded.
	ErrStaleFetch = errors.New("stale discussion fetch discarded")
	ErrNoRoot     = errors.New("no discussion open")
	ErrNotFound   = errors.New("comment not in discussion")
)

// Fetcher returns the complete flat record set of a discussion: the root and every
// descendant, unsorted and un-nested.
type Fetcher interface {
	FetchDiscussion(ctx context.Context, author, permlink string) ([]models.RawRecord, error)
}

type Status string

const (
	StatusEmpty   Status = "empty"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

type EventKind string

const (
	EventRefreshing EventKind = "refreshing"
	EventRefreshed  EventKind = "refreshed"
	EventFailed     EventKind = "failed"
)

// Event tells live viewers what happened to the session's discussion.
type Event struct {
	Kind  EventKind `json:"kind"`
	Root  string    `json:"root"`
	Error string    `json:"error,omitempty"`
}

// Invalidator drops whatever a caching Fetcher holds for root.
type Invalidator interface {
	Invalidate(root models.Key)
}

// Callbacks are caller-supplied node interactions. A nil callback falls back to the
// session's own behavior.
type Callbacks struct {
	OnAuthorClick func(models.Key)
	OnReplyClick  func(models.Key)
	OnVoteClick   func(models.Key)
}

// Config wires a Session.
type Config struct {
	Fetcher Fetcher
	// Invalidator, when set, is told to drop cached results before Reload fetches.
	Invalidator Invalidator
	Renderer   Renderer
	State      interaction.Store
	Callbacks  Callbacks
	MaxDepth   int
	TruncateAt int
}

// Session is one viewer's view of one discussion root at a time. It owns the flat
// set, replaces it wholesale on every fetch and keeps interaction state across
// refetches of the same root.
type Session struct {
	fetcher   Fetcher
	cache     Invalidator
	renderer  Renderer
	state     interaction.Store
	callbacks Callbacks
	opts      Options

	mu          sync.Mutex
	root        models.Key
	rootComment models.Comment
	set         []models.Comment
	status      Status
	lastErr     error
	reconciling bool
	subs        map[chan Event]struct{}
}

func NewSession(cfg Config) *Session {
	state := cfg.State
	if state == nil {
		state = interaction.NewMemoryStore()
	}
	return &Session{
		fetcher:   cfg.Fetcher,
		cache:     cfg.Invalidator,
		renderer:  cfg.Renderer,
		state:     state,
		callbacks: cfg.Callbacks,
		opts: Options{
			MaxDepth:   cfg.MaxDepth,
			TruncateAt: cfg.TruncateAt,
		}.withDefaults(),
		status: StatusEmpty,
		subs:   make(map[chan Event]struct{}),
	}
}

// Root is the key of the discussion currently viewed.
func (s *Session) Root() models.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

func (s *Session) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastErr
}

// Reconciling reports whether a post-write refresh is pending.
func (s *Session) Reconciling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciling
}

// Open switches the session to root and fetches it. The interaction state is bound
// to root, which discards it when it belonged to another discussion. Reopening the
// same root is a plain refresh.
func (s *Session) Open(ctx context.Context, root models.Key) error {
	s.mu.Lock()
	changed := s.root != root
	if changed {
		s.root = root
		s.rootComment = models.Comment{}
		s.set = nil
		s.status = StatusEmpty
		s.lastErr = nil
		s.reconciling = false
	}
	s.mu.Unlock()

	if changed {
		if _, err := s.state.Bind(ctx, root.String()); err != nil {
			log.Printf("[session] bind interaction state to %s: %v", root, err)
		}
	}
	return s.Refresh(ctx)
}

// Reload is a Refresh that first drops any cached copy of the root, so the viewer
// sees what the source holds now.
func (s *Session) Reload(ctx context.Context) error {
	if root := s.Root(); s.cache != nil && !root.IsZero() {
		s.cache.Invalidate(root)
	}
	return s.Refresh(ctx)
}

// Refresh refetches the current root and replaces the whole flat set. A result that
// arrives after the root changed is dropped. Between overlapping refreshes of the
// same root the later completion wins.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	root := s.root
	if root.IsZero() {
		s.mu.Unlock()
		return ErrNoRoot
	}
	if s.status != StatusReady {
		s.status = StatusLoading
	}
	previous := Index(s.set)
	s.mu.Unlock()

	raws, err := s.fetcher.FetchDiscussion(ctx, root.Author, root.Permlink)
	var set []models.Comment
	if err == nil {
		set = NormalizeAll(raws, previous)
	}

	s.mu.Lock()
	if s.root != root {
		s.mu.Unlock()
		log.Printf("[session] discarded fetch of %s, now viewing %s", root, s.Root())
		return ErrStaleFetch
	}
	if err != nil {
		s.status = StatusFailed
		s.lastErr = err
		s.mu.Unlock()
		s.publish(Event{Kind: EventFailed, Root: root.String(), Error: err.Error()})
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	s.set = set
	s.rootComment = findRoot(root, set)
	s.status = StatusReady
	s.lastErr = nil
	s.mu.Unlock()

	s.publish(Event{Kind: EventRefreshed, Root: root.String()})
	return nil
}

// findRoot picks the root record out of the set, or stands in a bare one when the
// source left it out.
func findRoot(root models.Key, set []models.Comment) models.Comment {
	for _, c := range set {
		if c.Key() == root {
			return c
		}
	}
	return models.Comment{Author: root.Author, Permlink: root.Permlink}
}

func (s *Session) ready() (models.Comment, []models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case StatusReady:
		return s.rootComment, s.set, nil
	case StatusFailed:
		return models.Comment{}, nil, fmt.Errorf("%w: %v", ErrFetchFailed, s.lastErr)
	default:
		return models.Comment{}, nil, ErrNoRoot
	}
}

// Comments returns the canonical flat set, root included.
func (s *Session) Comments() ([]models.Comment, error) {
	_, set, err := s.ready()
	if err != nil {
		return nil, err
	}
	return append([]models.Comment(nil), set...), nil
}

// Comment looks up one record of the current set.
func (s *Session) Comment(key models.Key) (models.Comment, error) {
	_, set, err := s.ready()
	if err != nil {
		return models.Comment{}, err
	}
	for _, c := range set {
		if c.Key() == key {
			return c, nil
		}
	}
	return models.Comment{}, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// View renders the bounded thread. A non-blank query filters the flat set first and
// switches bodies to highlighted raw source.
func (s *Session) View(ctx context.Context, query string) (*ThreadView, error) {
	root, set, err := s.ready()
	if err != nil {
		return nil, err
	}
	return s.walk(ctx, root, Filter(query, set), query, false)
}

// ExpandedView is the escape hatch for replies held back by the depth cap: the
// same bounded walk, rooted at key.
func (s *Session) ExpandedView(ctx context.Context, key models.Key, query string) (*ThreadView, error) {
	focus, err := s.Comment(key)
	if err != nil {
		return nil, err
	}
	_, set, err := s.ready()
	if err != nil {
		return nil, err
	}
	return s.walk(ctx, focus, Filter(query, set), query, true)
}

func (s *Session) walk(ctx context.Context, root models.Comment, set []models.Comment, query string, subtree bool) (*ThreadView, error) {
	flags, err := s.state.Snapshot(ctx)
	if err != nil {
		log.Printf("[session] interaction state unavailable: %v", err)
		flags = nil
	}
	opts := s.opts
	opts.Query = query
	opts.Renderer = s.renderer
	opts.Flags = flags
	opts.Subtree = subtree
	return Walk(root, set, opts), nil
}

// State exposes the interaction store for the write coordinator.
func (s *Session) State() interaction.Store {
	return s.state
}

// BeginReconcile marks the session as waiting for a post-write refresh.
func (s *Session) BeginReconcile() {
	s.mu.Lock()
	s.reconciling = true
	root := s.root
	s.mu.Unlock()
	s.publish(Event{Kind: EventRefreshing, Root: root.String()})
}

// EndReconcile clears the reconciling indicator.
func (s *Session) EndReconcile() {
	s.mu.Lock()
	s.reconciling = false
	s.mu.Unlock()
}

// Subscribe streams session events until cancel is called. Slow readers miss events.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
