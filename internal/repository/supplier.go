package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/utils"
)

const tableSuppliers = "suppliers"

var supplierColumns = []string{"id", "supplier_nif", "supplier_name", "created_at"}

type SupplierRepository interface {
	// GetByNIF returns common.ErrNotFound when no supplier has that NIF.
	GetByNIF(ctx context.Context, nif string) (*entity.Supplier, error)
	// Upsert creates the supplier unless the NIF already exists and returns
	// the stored row either way. Existing rows are never modified.
	Upsert(ctx context.Context, nif string, name *string) (*entity.Supplier, error)
	Count(ctx context.Context) (int, error)
}

type supplierRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewSupplierRepository(store *Store, logger *slog.Logger) SupplierRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &supplierRepository{
		store:  store,
		logger: logger,
	}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *supplierRepository) GetByNIF(ctx context.Context, nif string) (*entity.Supplier, error) {
	return r.getByNIF(ctx, r.store.db, nif)
}

func (r *supplierRepository) getByNIF(ctx context.Context, q queryer, nif string) (*entity.Supplier, error) {
	b := r.store.builder()
	query, args := b.Select(supplierColumns...).
		From(b.Table(tableSuppliers)).
		Where(entsql.EQ("supplier_nif", nif)).
		Limit(1).
		Query()

	var (
		s       entity.Supplier
		name    sql.NullString
		created any
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.NIF, &name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supplier %s: %w", nif, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get supplier", "nif", nif, "error", err)
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	if name.Valid {
		s.Name = &name.String
	}
	s.CreatedAt = utils.TimeValue(created)
	return &s, nil
}

func (r *supplierRepository) Upsert(ctx context.Context, nif string, name *string) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.store.InTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		b := r.store.builder()
		query, args := b.Insert(tableSuppliers).
			Columns("supplier_nif", "supplier_name", "created_at").
			Values(nif, name, time.Now().UTC()).
			OnConflict(entsql.ConflictColumns("supplier_nif"), entsql.DoNothing()).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert supplier: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			r.logger.Info("supplier created", "nif", nif)
		}
		out, err = r.getByNIF(ctx, tx, nif)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert supplier: %w: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *supplierRepository) Count(ctx context.Context) (int, error) {
	b := r.store.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableSuppliers)).Query()
	var n int
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count suppliers: %w", err)
	}
	return n, nil
}
