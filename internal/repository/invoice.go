package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/utils"
)

const (
	tableInvoices = "purchase_invoices"
	tableItems    = "raw_purchase_items"
)

var (
	invoiceColumns = []string{
		"id", "purchase_id", "purchase_date", "supplier_id", "supplier_description",
		"supplier_nif", "needs_review", "item_count", "created_at",
	}
	itemColumns = []string{
		"id", "invoice_id", "line_no", "supplier_code", "supplier_description",
		"qty", "unit_supplier", "price_unit", "price_total", "vat_rate",
	}
)

type InvoiceRepository interface {
	// InsertLineItems stores the invoice header and all of its lines in one
	// transaction. On error nothing is stored.
	InsertLineItems(ctx context.Context, inv entity.NormalizedInvoice) (*entity.InvoiceRecord, error)
	// GetInvoice returns common.ErrNotFound for an unknown id.
	GetInvoice(ctx context.Context, id uuid.UUID) (*entity.InvoiceRecord, error)
	ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]*entity.LineItem, error)
}

type invoiceRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewInvoiceRepository(store *Store, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{
		store:  store,
		logger: logger,
	}
}

func (r *invoiceRepository) InsertLineItems(ctx context.Context, inv entity.NormalizedInvoice) (*entity.InvoiceRecord, error) {
	rec := &entity.InvoiceRecord{
		PurchaseID:          inv.PurchaseID,
		PurchaseDate:        inv.PurchaseDate,
		SupplierID:          inv.SupplierID,
		SupplierDescription: inv.SupplierDescription,
		SupplierNIF:         inv.SupplierNIF,
		NeedsReview:         inv.NeedsReview,
		ItemCount:           len(inv.Items),
	}

	err := r.store.InTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// fresh id per attempt, a retried transaction starts from scratch
		rec.ID = uuid.New()
		rec.CreatedAt = time.Now().UTC()

		b := r.store.builder()
		query, args := b.Insert(tableInvoices).
			Columns(invoiceColumns...).
			Values(rec.ID.String(), rec.PurchaseID, rec.PurchaseDate, rec.SupplierID, rec.SupplierDescription,
				rec.SupplierNIF, rec.NeedsReview, rec.ItemCount, rec.CreatedAt).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		for i, it := range inv.Items {
			query, args := b.Insert(tableItems).
				Columns(
					"invoice_id", "line_no", "purchase_id", "supplier_id", "supplier_code",
					"supplier_description", "qty", "unit_supplier", "price_unit", "price_total",
					"vat_rate", "purchase_date", "processed",
				).
				Values(
					rec.ID.String(), i+1, inv.PurchaseID, inv.SupplierID, it.ProductCode,
					it.ProductDesc, it.Qty, it.UnitSupplier, it.PriceUnit, it.PriceTotal,
					it.VATRate, inv.PurchaseDate, false,
				).
				Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert line %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to insert line items", "purchase_id", utils.StrOrEmpty(inv.PurchaseID), "error", err)
		return nil, fmt.Errorf("insert line items: %w: %w", common.ErrDatabase, err)
	}
	r.logger.Debug("line items inserted", "invoice_id", rec.ID, "items", rec.ItemCount)
	return rec, nil
}

func (r *invoiceRepository) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.InvoiceRecord, error) {
	b := r.store.builder()
	query, args := b.Select(invoiceColumns...).
		From(b.Table(tableInvoices)).
		Where(entsql.EQ("id", id.String())).
		Limit(1).
		Query()

	var (
		rec                   entity.InvoiceRecord
		purchaseID, desc, nif sql.NullString
		supplierID            sql.NullInt64
		purchaseDate, created any
	)
	err := r.store.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID, &purchaseID, &purchaseDate, &supplierID, &desc,
		&nif, &rec.NeedsReview, &rec.ItemCount, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	rec.PurchaseID = nullString(purchaseID)
	rec.SupplierDescription = nullString(desc)
	rec.SupplierNIF = nullString(nif)
	rec.PurchaseDate = utils.DateString(purchaseDate)
	rec.CreatedAt = utils.TimeValue(created)
	if supplierID.Valid {
		rec.SupplierID = &supplierID.Int64
	}
	return &rec, nil
}

func (r *invoiceRepository) ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]*entity.LineItem, error) {
	b := r.store.builder()
	query, args := b.Select(itemColumns...).
		From(b.Table(tableItems)).
		Where(entsql.EQ("invoice_id", invoiceID.String())).
		OrderBy("line_no").
		Query()

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list line items", "invoice_id", invoiceID, "error", err)
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var out []*entity.LineItem
	for rows.Next() {
		var (
			it               entity.LineItem
			code, desc, unit sql.NullString
		)
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.LineNo, &code, &desc,
			&it.Qty, &unit, &it.PriceUnit, &it.PriceTotal, &it.VATRate,
		); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		it.ProductCode = nullString(code)
		it.ProductDesc = nullString(desc)
		it.UnitSupplier = nullString(unit)
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	return out, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
