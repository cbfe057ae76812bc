package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/supplier-invoices/internal/repository"
	"github.com/joseph-ayodele/supplier-invoices/internal/utils"
)

const sheet = "Invoice"

// Service produces XLSX workbooks from stored invoices.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// InvoiceItemsXLSX returns a workbook with the invoice header on top and one
// row per normalized line item below it.
func (s *Service) InvoiceItemsXLSX(ctx context.Context, invoiceID uuid.UUID) ([]byte, error) {
	start := time.Now()

	inv, err := s.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}
	items, err := s.invoices.ListLineItems(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := [][2]any{
		{"Invoice", inv.ID.String()},
		{"Purchase ID", utils.StrOrEmpty(inv.PurchaseID)},
		{"Purchase Date", utils.StrOrEmpty(inv.PurchaseDate)},
		{"Supplier", utils.StrOrEmpty(inv.SupplierDescription)},
		{"Supplier NIF", utils.StrOrEmpty(inv.SupplierNIF)},
		{"Needs Review", inv.NeedsReview},
	}
	for i, kv := range header {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), kv[1])
	}

	headerRow := len(header) + 2
	columns := []string{
		"Line",
		"Product Code",
		"Description",
		"Qty",
		"Unit",
		"Unit Price",
		"Total",
		"VAT %",
	}
	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := headerRow + 1
	for _, it := range items {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, it.LineNo)
		write(2, utils.StrOrEmpty(it.ProductCode))
		write(3, truncate(utils.StrOrEmpty(it.ProductDesc), 140))
		write(4, numberCell(it.Qty, 3))
		write(5, utils.StrOrEmpty(it.UnitSupplier))
		write(6, numberCell(it.PriceUnit, 2))
		write(7, numberCell(it.PriceTotal, 2))
		write(8, numberCell(it.VATRate, 2))
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 16) // line / header labels
	_ = f.SetColWidth(sheet, "B", "B", 38) // code / header values
	_ = f.SetColWidth(sheet, "C", "C", 48) // description
	_ = f.SetColWidth(sheet, "D", "H", 12) // numbers

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoice_id", invoiceID.String(),
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// numberCell writes numbers as numbers so spreadsheets can sum them; nulls
// stay empty.
func numberCell(d decimal.NullDecimal, places int32) any {
	if !d.Valid {
		return ""
	}
	f, _ := d.Decimal.Round(places).Float64()
	return f
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
