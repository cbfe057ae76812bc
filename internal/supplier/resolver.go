// Package supplier resolves invoices to supplier rows keyed by NIF.
package supplier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/repository"
)

const defaultCacheSize = 1024

// Resolver maps a NIF to a supplier id, creating the supplier on first
// sighting when asked to. Concurrent resolutions of one NIF inside the
// process share a single round trip; across processes the repository's
// upsert keeps it to one row. Resolved ids are cached, supplier rows are
// never modified once created.
type Resolver struct {
	repo   repository.SupplierRepository
	group  singleflight.Group
	cache  *lru.Cache[string, int64]
	logger *slog.Logger
}

// NewResolver builds a resolver over repo. cacheSize <= 0 uses a default.
func NewResolver(repo repository.SupplierRepository, cacheSize int, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, int64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("supplier cache: %w", err)
	}
	return &Resolver{repo: repo, cache: cache, logger: logger}, nil
}

// Resolve returns the id of the supplier with the given NIF. A nil NIF
// resolves to nil without touching storage. On a miss the supplier is
// created with fallbackName when autoCreate is set; otherwise nil is returned.
// Storage failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, nif *string, fallbackName *string, autoCreate bool) (*int64, error) {
	if nif == nil {
		return nil, nil
	}
	key := *nif
	if id, ok := r.cache.Get(key); ok {
		return &id, nil
	}

	v, err, shared := r.group.Do(key+"|"+strconv.FormatBool(autoCreate), func() (any, error) {
		return r.lookupOrCreate(ctx, key, fallbackName, autoCreate)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("supplier.resolve.shared", "nif", key)
	}
	id, _ := v.(*int64)
	if id == nil {
		return nil, nil
	}
	out := *id
	return &out, nil
}

func (r *Resolver) lookupOrCreate(ctx context.Context, nif string, name *string, autoCreate bool) (*int64, error) {
	s, err := r.repo.GetByNIF(ctx, nif)
	switch {
	case err == nil:
		r.cache.Add(nif, s.ID)
		return &s.ID, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("lookup supplier %s: %w", nif, err)
	case !autoCreate:
		r.logger.Info("supplier.resolve.unknown", "nif", nif)
		return nil, nil
	}

	var created *entity.Supplier
	if created, err = r.repo.Upsert(ctx, nif, name); err != nil {
		return nil, fmt.Errorf("create supplier %s: %w", nif, err)
	}
	r.cache.Add(nif, created.ID)
	r.logger.Info("supplier.resolve.created", "nif", nif, "supplier_id", created.ID)
	return &created.ID, nil
}
