package services

import (
	"log"

	"threadkit/internal/discussion"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SessionFactory builds the viewing session of one viewer.
type SessionFactory func(viewerID string) *discussion.Session

// SessionRegistry keeps the most recently active viewers' sessions. An evicted
// viewer gets a fresh session, and an empty interaction state, on return.
type SessionRegistry struct {
	cache   *lru.Cache[string, *discussion.Session]
	factory SessionFactory
}

func NewSessionRegistry(size int, factory SessionFactory) *SessionRegistry {
	if size <= 0 {
		size = 1000
	}
	cache, err := lru.NewWithEvict[string, *discussion.Session](size, func(viewerID string, _ *discussion.Session) {
		log.Printf("[session] evicted viewer %s", viewerID)
	})
	if err != nil {
		panic(err)
	}
	return &SessionRegistry{cache: cache, factory: factory}
}

// Get returns the viewer's session, creating it on first use.
func (r *SessionRegistry) Get(viewerID string) *discussion.Session {
	if sess, ok := r.cache.Get(viewerID); ok {
		return sess
	}
	sess := r.factory(viewerID)
	if prev, ok, _ := r.cache.PeekOrAdd(viewerID, sess); ok {
		return prev
	}
	return sess
}

func (r *SessionRegistry) Len() int {
	return r.cache.Len()
}
