package services

import (
	"context"
	"time"

	"threadkit/internal/discussion"
	"threadkit/internal/models"
	"threadkit/internal/utils"
)

// CachedFetcher serves repeated reads of a discussion from a short-lived cache.
// Reconciliation invalidates the root before refetching so writes are not masked.
type CachedFetcher struct {
	next  discussion.Fetcher
	cache *utils.TTLCache
	ttl   time.Duration
}

func NewCachedFetcher(next discussion.Fetcher, cache *utils.TTLCache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl}
}

func cacheKey(author, permlink string) string {
	return "discussion:" + author + "/" + permlink
}

func (f *CachedFetcher) FetchDiscussion(ctx context.Context, author, permlink string) ([]models.RawRecord, error) {
	key := cacheKey(author, permlink)
	if f.ttl > 0 {
		if cached, ok := f.cache.Get(key); ok {
			if records, ok := cached.([]models.RawRecord); ok {
				return records, nil
			}
		}
	}
	records, err := f.next.FetchDiscussion(ctx, author, permlink)
	if err != nil {
		return nil, err
	}
	if f.ttl > 0 {
		f.cache.Set(key, records, f.ttl)
	}
	return records, nil
}

// Invalidate drops the cached copy of a discussion.
func (f *CachedFetcher) Invalidate(root models.Key) {
	f.cache.Delete(cacheKey(root.Author, root.Permlink))
}
