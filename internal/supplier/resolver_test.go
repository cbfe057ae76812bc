package supplier

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/repository"
)

type fakeRepo struct {
	mu      sync.Mutex
	rows    map[string]*entity.Supplier
	gets    atomic.Int32
	upserts atomic.Int32
	failGet error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: map[string]*entity.Supplier{}} }

func (f *fakeRepo) GetByNIF(_ context.Context, nif string) (*entity.Supplier, error) {
	f.gets.Add(1)
	if f.failGet != nil {
		return nil, f.failGet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[nif]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeRepo) Upsert(_ context.Context, nif string, name *string) (*entity.Supplier, error) {
	f.upserts.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[nif]; ok {
		return s, nil
	}
	s := &entity.Supplier{ID: int64(len(f.rows) + 1), NIF: nif, Name: name}
	f.rows[nif] = s
	return s, nil
}

func (f *fakeRepo) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows), nil
}

func strPtr(s string) *string { return &s }

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Should not touch storage for a nil NIF", func(t *testing.T) {
		repo := newFakeRepo()
		r, err := NewResolver(repo, 0, nil)
		require.NoError(t, err)

		id, err := r.Resolve(ctx, nil, strPtr("Lusa"), true)
		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Zero(t, repo.gets.Load())
		assert.Zero(t, repo.upserts.Load())
	})

	t.Run("Should create on miss and reuse afterwards", func(t *testing.T) {
		repo := newFakeRepo()
		r, err := NewResolver(repo, 0, nil)
		require.NoError(t, err)

		id, err := r.Resolve(ctx, strPtr("123456789"), strPtr("Lusa"), true)
		require.NoError(t, err)
		require.NotNil(t, id)

		again, err := r.Resolve(ctx, strPtr("123456789"), strPtr("Other"), true)
		require.NoError(t, err)
		assert.Equal(t, *id, *again)
		assert.EqualValues(t, 1, repo.upserts.Load())
		assert.EqualValues(t, 1, repo.gets.Load(), "second call should hit the cache")
		assert.Equal(t, "Lusa", *repo.rows["123456789"].Name)
	})

	t.Run("Should return nil on miss when auto-create is off", func(t *testing.T) {
		repo := newFakeRepo()
		r, err := NewResolver(repo, 0, nil)
		require.NoError(t, err)

		id, err := r.Resolve(ctx, strPtr("123456789"), nil, false)
		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Zero(t, repo.upserts.Load())

		n, _ := repo.Count(ctx)
		assert.Zero(t, n)
	})

	t.Run("Should return existing ids without auto-create", func(t *testing.T) {
		repo := newFakeRepo()
		repo.rows["123456789"] = &entity.Supplier{ID: 42, NIF: "123456789"}
		r, err := NewResolver(repo, 0, nil)
		require.NoError(t, err)

		id, err := r.Resolve(ctx, strPtr("123456789"), nil, false)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.EqualValues(t, 42, *id)
	})

	t.Run("Should surface storage failures", func(t *testing.T) {
		repo := newFakeRepo()
		repo.failGet = errors.New("connection refused")
		r, err := NewResolver(repo, 0, nil)
		require.NoError(t, err)

		_, err = r.Resolve(ctx, strPtr("123456789"), nil, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestResolver_Concurrent(t *testing.T) {
	t.Run("Should create exactly one supplier for concurrent resolutions", func(t *testing.T) {
		ctx := context.Background()
		store, err := repository.Open(ctx, repository.Config{
			Driver:     repository.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "suppliers.db"),
		}, nil)
		require.NoError(t, err)
		t.Cleanup(store.Close)
		require.NoError(t, store.Migrate(ctx))

		repo := repository.NewSupplierRepository(store, nil)
		const n = 32

		// separate resolvers so the race reaches the database
		resolvers := make([]*Resolver, 4)
		for i := range resolvers {
			resolvers[i], err = NewResolver(repo, 0, nil)
			require.NoError(t, err)
		}

		ids := make([]*int64, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], errs[i] = resolvers[i%len(resolvers)].Resolve(ctx, strPtr("123456789"), strPtr("Lusa"), true)
			}(i)
		}
		wg.Wait()

		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			require.NotNil(t, ids[i])
			assert.Equal(t, *ids[0], *ids[i])
		}
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
