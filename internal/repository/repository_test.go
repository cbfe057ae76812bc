package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "invoices.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(ctx))
	return s
}

// rejectLine makes SQLite abort any insert of the given line number.
func rejectLine(t *testing.T, s *Store, lineNo int) {
	t.Helper()
	_, err := s.DB().ExecContext(context.Background(), fmt.Sprintf(
		`CREATE TRIGGER reject_line BEFORE INSERT ON raw_purchase_items
		 WHEN NEW.line_no = %d BEGIN SELECT RAISE(ABORT, 'line rejected'); END`, lineNo))
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestBuildSQLiteDSN(t *testing.T) {
	t.Run("Should build DSN for file path with pragmas", func(t *testing.T) {
		d := buildSQLiteDSN("/tmp/test.db", 0)
		assert.Contains(t, d, "file:/tmp/test.db")
		assert.Contains(t, d, "_pragma=journal_mode(WAL)")
		assert.Contains(t, d, "_pragma=foreign_keys(ON)")
		assert.Contains(t, d, "_pragma=busy_timeout(5000)")
	})
	t.Run("Should build DSN for in-memory shared cache", func(t *testing.T) {
		d := buildSQLiteDSN(MemoryPath, 0)
		assert.Contains(t, d, "file::memory:?cache=shared")
		assert.NotContains(t, d, "journal_mode")
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestSupplierRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create a supplier once and keep its name", func(t *testing.T) {
		repo := NewSupplierRepository(newTestStore(t), nil)

		_, err := repo.GetByNIF(ctx, "123456789")
		assert.ErrorIs(t, err, common.ErrNotFound)

		first, err := repo.Upsert(ctx, "123456789", strPtr("Distribuidora Lusa"))
		require.NoError(t, err)
		assert.Positive(t, first.ID)
		assert.Equal(t, "123456789", first.NIF)
		require.NotNil(t, first.Name)

		second, err := repo.Upsert(ctx, "123456789", strPtr("Another Name"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Distribuidora Lusa", *second.Name)

		got, err := repo.GetByNIF(ctx, "123456789")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Should accept a supplier without a name", func(t *testing.T) {
		repo := NewSupplierRepository(newTestStore(t), nil)
		s, err := repo.Upsert(ctx, "501442600", nil)
		require.NoError(t, err)
		assert.Nil(t, s.Name)
	})

	t.Run("Should converge concurrent upserts of one NIF on a single row", func(t *testing.T) {
		repo := NewSupplierRepository(newTestStore(t), nil)
		const workers = 16

		ids := make([]int64, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s, err := repo.Upsert(ctx, "987654321", strPtr("Racer"))
				errs[i] = err
				if err == nil {
					ids[i] = s.ID
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestInvoiceRepository(t *testing.T) {
	ctx := context.Background()

	invoice := func(vat3 string) entity.NormalizedInvoice {
		return entity.NormalizedInvoice{
			PurchaseID:          strPtr("FT 2024/7"),
			PurchaseDate:        strPtr("2024-03-07"),
			SupplierDescription: strPtr("Distribuidora Lusa"),
			SupplierNIF:         strPtr("123456789"),
			Items: []entity.NormalizedLineItem{
				{ProductCode: strPtr("1234"), ProductDesc: strPtr("Azeite"), Qty: nd("2"), UnitSupplier: strPtr("UN"), PriceUnit: nd("5.00"), PriceTotal: nd("10.00"), VATRate: nd("23")},
				{ProductDesc: strPtr("Arroz"), Qty: nd("1.5"), UnitSupplier: strPtr("KG"), PriceUnit: nd("1.20"), PriceTotal: nd("1.80"), VATRate: nd("6")},
				{ProductDesc: strPtr("Vinho"), Qty: nd("6"), PriceUnit: nd("3.10"), PriceTotal: nd("18.60"), VATRate: nd(vat3)},
			},
		}
	}

	t.Run("Should store the header and every line", func(t *testing.T) {
		store := newTestStore(t)
		suppliers := NewSupplierRepository(store, nil)
		repo := NewInvoiceRepository(store, nil)

		s, err := suppliers.Upsert(ctx, "123456789", strPtr("Distribuidora Lusa"))
		require.NoError(t, err)
		inv := invoice("13")
		inv.SupplierID = &s.ID

		rec, err := repo.InsertLineItems(ctx, inv)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, rec.ID)
		assert.Equal(t, 3, rec.ItemCount)

		got, err := repo.GetInvoice(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		require.NotNil(t, got.PurchaseDate)
		assert.Equal(t, "2024-03-07", *got.PurchaseDate)
		require.NotNil(t, got.SupplierID)
		assert.Equal(t, s.ID, *got.SupplierID)
		assert.Equal(t, 3, got.ItemCount)

		items, err := repo.ListLineItems(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, 1, items[0].LineNo)
		assert.Equal(t, "1234", *items[0].ProductCode)
		assert.True(t, decimal.RequireFromString("10").Equal(items[0].PriceTotal.Decimal))
		assert.True(t, decimal.RequireFromString("1.5").Equal(items[1].Qty.Decimal))
		assert.Nil(t, items[2].ProductCode)
		assert.Nil(t, items[2].UnitSupplier)
	})

	t.Run("Should roll back every line when one fails", func(t *testing.T) {
		store := newTestStore(t)
		repo := NewInvoiceRepository(store, nil)

		rejectLine(t, store, 3)

		_, err := repo.InsertLineItems(ctx, invoice("13"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert line 3")
		assert.ErrorIs(t, err, common.ErrDatabase)

		var n int
		require.NoError(t, store.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM raw_purchase_items").Scan(&n))
		assert.Zero(t, n)
		require.NoError(t, store.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM purchase_invoices").Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("Should report unknown invoices as not found", func(t *testing.T) {
		repo := NewInvoiceRepository(newTestStore(t), nil)
		_, err := repo.GetInvoice(ctx, uuid.New())
		assert.ErrorIs(t, err, common.ErrNotFound)

		items, err := repo.ListLineItems(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("boom")))
}
