package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

const (
	loanTypeKeyPrefix = "loan_type:"
	loanTypeListKey   = "loan_types:all"
)

// CachedLoanTypeRepository serves the loan product catalog from a cache and
// falls back to the wrapped repository. Cache failures are logged and never
// reach the caller.
type CachedLoanTypeRepository struct {
	next   usecase.LoanTypeRepository
	cache  usecase.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedLoanTypeRepository wraps next with a cache of the given TTL.
func NewCachedLoanTypeRepository(next usecase.LoanTypeRepository, cache usecase.Cache, ttl time.Duration, logger zerolog.Logger) *CachedLoanTypeRepository {
	return &CachedLoanTypeRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetByID returns one loan type.
func (r *CachedLoanTypeRepository) GetByID(ctx context.Context, id string) (*domain.LoanType, error) {
	key := loanTypeKeyPrefix + id

	var cached domain.LoanType
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}

	lt, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, lt)

	return lt, nil
}

// List returns the whole catalog.
func (r *CachedLoanTypeRepository) List(ctx context.Context) ([]*domain.LoanType, error) {
	var cached []*domain.LoanType
	if r.load(ctx, loanTypeListKey, &cached) {
		return cached, nil
	}

	types, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	r.store(ctx, loanTypeListKey, types)

	return types, nil
}

// Invalidate drops the cached entries for id and the catalog listing.
func (r *CachedLoanTypeRepository) Invalidate(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, loanTypeKeyPrefix+id); err != nil {
		return err
	}

	return r.cache.Delete(ctx, loanTypeListKey)
}

func (r *CachedLoanTypeRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			r.logger.Warn().Err(err).Str("key", key).Msg("loan type cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable loan type cache entry")
		return false
	}

	return true
}

func (r *CachedLoanTypeRepository) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("loan type cache write failed")
	}
}
