package services

import (
	"context"
	"log"
	"sync"
	"time"

	"threadkit/internal/interaction"
	"threadkit/internal/models"
)

// DefaultReconcileDelay outlasts the chain indexer's usual lag. It is a heuristic:
// the refetch that follows is not guaranteed to observe the write.
const DefaultReconcileDelay = 3 * time.Second

// Refresher is a viewing session that can be refetched wholesale.
type Refresher interface {
	Root() models.Key
	Refresh(ctx context.Context) error
	BeginReconcile()
	EndReconcile()
	State() interaction.Store
}

// Invalidator drops cached copies of a discussion.
type Invalidator interface {
	Invalidate(root models.Key)
}

type pendingRefresh struct {
	timer *time.Timer
	root  models.Key
	keys  map[string]struct{}
}

// Reconciler runs one delayed full refetch per session after writes. A write that
// lands while a refetch is pending pushes the timer back instead of adding a second
// one, so a burst of writes ends in exactly one refetch.
type Reconciler struct {
	delay       time.Duration
	timeout     time.Duration
	invalidator Invalidator

	mu      sync.Mutex
	pending map[Refresher]*pendingRefresh
}

func NewReconciler(delay time.Duration, invalidator Invalidator) *Reconciler {
	if delay <= 0 {
		delay = DefaultReconcileDelay
	}
	return &Reconciler{
		delay:       delay,
		timeout:     30 * time.Second,
		invalidator: invalidator,
		pending:     make(map[Refresher]*pendingRefresh),
	}
}

// Schedule arranges a refetch of target's current root after the delay. key is the
// node whose write triggered it; its phase returns to idle once the refetch ran.
func (r *Reconciler) Schedule(target Refresher, key models.Key) {
	root := target.Root()

	r.mu.Lock()
	p, ok := r.pending[target]
	if ok && p.root == root && p.timer.Stop() {
		p.keys[key.String()] = struct{}{}
		p.timer.Reset(r.delay)
		r.mu.Unlock()
		return
	}
	p = &pendingRefresh{root: root, keys: map[string]struct{}{key.String(): {}}}
	r.pending[target] = p
	p.timer = time.AfterFunc(r.delay, func() { r.fire(target, p) })
	r.mu.Unlock()

	target.BeginReconcile()
}

// Pending reports whether target has a refetch waiting.
func (r *Reconciler) Pending(target Refresher) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[target]
	return ok
}

func (r *Reconciler) fire(target Refresher, p *pendingRefresh) {
	r.mu.Lock()
	if r.pending[target] == p {
		delete(r.pending, target)
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if target.Root() != p.root {
		// the viewer moved on; its interaction state was reset with the root
		log.Printf("[reconcile] %s no longer viewed, skipping refetch", p.root)
		target.EndReconcile()
		return
	}

	if r.invalidator != nil {
		r.invalidator.Invalidate(p.root)
	}
	if err := target.Refresh(ctx); err != nil {
		log.Printf("[reconcile] refetch %s failed: %v", p.root, err)
	}

	state := target.State()
	for k := range p.keys {
		err := state.Update(ctx, k, func(f *interaction.Flags) {
			if f.Phase == interaction.PhaseReconciling {
				f.Phase = interaction.PhaseIdle
			}
		})
		if err != nil {
			log.Printf("[reconcile] clear phase of %s: %v", k, err)
		}
	}
	target.EndReconcile()
}
