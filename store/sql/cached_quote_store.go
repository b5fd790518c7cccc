package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-reship/core"
)

const quoteCacheKeyPrefix = "go-reship::quote::v1"

// CachedQuoteStore layers a read-through cache over a quote store. Writes
// invalidate the cached row so a paid quote is never served stale.
type CachedQuoteStore struct {
	base  core.QuoteStore
	cache repositorycache.CacheService
}

func NewCachedQuoteStore(base core.QuoteStore, cacheService repositorycache.CacheService) (*CachedQuoteStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base quote store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: quote cache service is required")
	}
	return &CachedQuoteStore{base: base, cache: cacheService}, nil
}

// QuoteCacheKey returns the deterministic cache key for a quote read:
// go-reship::quote::v1::<quote_id> with the id URL-path escaped.
func QuoteCacheKey(quoteID string) (string, error) {
	quoteID = strings.TrimSpace(quoteID)
	if quoteID == "" {
		return "", fmt.Errorf("sqlstore: quote id is required")
	}
	return quoteCacheKeyPrefix + "::" + url.PathEscape(quoteID), nil
}

func (s *CachedQuoteStore) Get(ctx context.Context, id string) (core.Quote, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: cached quote store is not configured")
	}
	cacheKey, err := QuoteCacheKey(id)
	if err != nil {
		return core.Quote{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Quote, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedQuoteStore) MarkPaid(ctx context.Context, in core.MarkQuotePaidInput) (core.Quote, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: cached quote store is not configured")
	}
	quote, err := s.base.MarkPaid(ctx, in)
	if err != nil {
		return quote, err
	}
	if invalidateErr := s.invalidate(ctx, in.QuoteID); invalidateErr != nil {
		return core.Quote{}, invalidateErr
	}
	return quote, nil
}

func (s *CachedQuoteStore) ClearPaymentSession(ctx context.Context, quoteID string) (core.Quote, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: cached quote store is not configured")
	}
	quote, err := s.base.ClearPaymentSession(ctx, quoteID)
	if err != nil {
		return quote, err
	}
	if invalidateErr := s.invalidate(ctx, quoteID); invalidateErr != nil {
		return core.Quote{}, invalidateErr
	}
	return quote, nil
}

func (s *CachedQuoteStore) invalidate(ctx context.Context, quoteID string) error {
	cacheKey, err := QuoteCacheKey(quoteID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.QuoteStore = (*CachedQuoteStore)(nil)
