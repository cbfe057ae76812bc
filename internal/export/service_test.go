package export

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
)

type memInvoices struct {
	rec   *entity.InvoiceRecord
	items []*entity.LineItem
}

func (m *memInvoices) InsertLineItems(context.Context, entity.NormalizedInvoice) (*entity.InvoiceRecord, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *memInvoices) GetInvoice(_ context.Context, id uuid.UUID) (*entity.InvoiceRecord, error) {
	if m.rec == nil || m.rec.ID != id {
		return nil, common.ErrNotFound
	}
	return m.rec, nil
}

func (m *memInvoices) ListLineItems(context.Context, uuid.UUID) ([]*entity.LineItem, error) {
	return m.items, nil
}

func TestService_InvoiceItemsXLSX(t *testing.T) {
	id := uuid.New()
	pid, date := "FT 1", "2024-03-07"
	code, desc, unit := "1234", "Azeite Extra", "UN"
	repo := &memInvoices{
		rec: &entity.InvoiceRecord{ID: id, PurchaseID: &pid, PurchaseDate: &date, ItemCount: 2},
		items: []*entity.LineItem{
			{InvoiceID: id, LineNo: 1, NormalizedLineItem: entity.NormalizedLineItem{
				ProductCode: &code, ProductDesc: &desc, UnitSupplier: &unit,
				Qty:        decimal.NullDecimal{Decimal: decimal.NewFromInt(2), Valid: true},
				PriceUnit:  decimal.NullDecimal{Decimal: decimal.RequireFromString("5.00"), Valid: true},
				PriceTotal: decimal.NullDecimal{Decimal: decimal.RequireFromString("10.00"), Valid: true},
			}},
			{InvoiceID: id, LineNo: 2},
		},
	}
	svc := NewService(repo, nil)

	t.Run("Should write header and line rows", func(t *testing.T) {
		b, err := svc.InvoiceItemsXLSX(context.Background(), id)
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(b))
		require.NoError(t, err)
		defer f.Close()

		v, err := f.GetCellValue(sheet, "B3")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-07", v)

		v, _ = f.GetCellValue(sheet, "B8")
		assert.Equal(t, "Product Code", v)
		v, _ = f.GetCellValue(sheet, "B9")
		assert.Equal(t, "1234", v)
		v, _ = f.GetCellValue(sheet, "G9")
		assert.Equal(t, "10", v)
		v, _ = f.GetCellValue(sheet, "G10")
		assert.Empty(t, v)
	})

	t.Run("Should fail for unknown invoices", func(t *testing.T) {
		_, err := svc.InvoiceItemsXLSX(context.Background(), uuid.New())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "çã…", truncate("çãoé", 3))
}
