package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"threadkit/internal/discussion"
	"threadkit/internal/models"
)

// syncFetcher serves a mutable discussion and counts fetches.
type syncFetcher struct {
	mu      sync.Mutex
	calls   int
	records []models.RawRecord
}

func (f *syncFetcher) FetchDiscussion(ctx context.Context, author, permlink string) ([]models.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]models.RawRecord(nil), f.records...), nil
}

func (f *syncFetcher) add(r models.RawRecord) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
}

func (f *syncFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	rootKey  = models.Key{Author: "alice", Permlink: "post1"}
	replyKey = models.Key{Author: "bob", Permlink: "c1"}
)

func newTestSession(t *testing.T) (*discussion.Session, *syncFetcher) {
	t.Helper()
	fetcher := &syncFetcher{records: []models.RawRecord{
		{"author": "alice", "permlink": "post1", "depth": 0},
		{"author": "bob", "permlink": "c1", "parent_author": "alice", "parent_permlink": "post1", "depth": 1},
	}}
	sess := discussion.NewSession(discussion.Config{Fetcher: fetcher})
	if err := sess.Open(context.Background(), rootKey); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return sess, fetcher
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []models.Key
}

func (r *recordingInvalidator) Invalidate(root models.Key) {
	r.mu.Lock()
	r.keys = append(r.keys, root)
	r.mu.Unlock()
}

func TestReconcilerDebouncesBurst(t *testing.T) {
	sess, fetcher := newTestSession(t)
	inv := &recordingInvalidator{}
	rec := NewReconciler(40*time.Millisecond, inv)

	rec.Schedule(sess, replyKey)
	time.Sleep(10 * time.Millisecond)
	rec.Schedule(sess, rootKey)

	if !sess.Reconciling() || !rec.Pending(sess) {
		t.Fatal("expected reconciliation pending")
	}
	waitFor(t, "reconcile", func() bool { return !rec.Pending(sess) && !sess.Reconciling() })

	// one fetch from Open, exactly one from reconciliation
	if got := fetcher.count(); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if len(inv.keys) != 1 || inv.keys[0] != rootKey {
		t.Errorf("expected root invalidated once, got %v", inv.keys)
	}
}

func TestReconcilerRefreshShowsNewRecords(t *testing.T) {
	sess, fetcher := newTestSession(t)
	rec := NewReconciler(10*time.Millisecond, nil)

	fetcher.add(models.RawRecord{"author": "dave", "permlink": "re-c1", "parent_author": "bob", "parent_permlink": "c1", "depth": 2})
	rec.Schedule(sess, replyKey)
	waitFor(t, "reconcile", func() bool { return !sess.Reconciling() })

	if _, err := sess.Comment(models.Key{Author: "dave", Permlink: "re-c1"}); err != nil {
		t.Errorf("expected new reply after refetch: %v", err)
	}
}

func TestReconcilerSkipsAbandonedRoot(t *testing.T) {
	sess, fetcher := newTestSession(t)
	rec := NewReconciler(20*time.Millisecond, nil)

	rec.Schedule(sess, replyKey)
	if err := sess.Open(context.Background(), models.Key{Author: "erin", Permlink: "other"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	before := fetcher.count()
	waitFor(t, "reconcile", func() bool { return !rec.Pending(sess) && !sess.Reconciling() })
	if fetcher.count() != before {
		t.Errorf("expected no refetch for the abandoned root")
	}
}

func TestDefaultReconcileDelay(t *testing.T) {
	if rec := NewReconciler(0, nil); rec.delay != DefaultReconcileDelay {
		t.Errorf("expected default delay, got %v", rec.delay)
	}
}
