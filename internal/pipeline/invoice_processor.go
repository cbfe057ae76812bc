package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/supplier-invoices/constants"
	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/extraction"
	"github.com/joseph-ayodele/supplier-invoices/internal/repository"
	"github.com/joseph-ayodele/supplier-invoices/internal/sanitize"
	"github.com/joseph-ayodele/supplier-invoices/internal/utils"
)

// SupplierResolver is implemented by supplier.Resolver.
type SupplierResolver interface {
	Resolve(ctx context.Context, nif *string, fallbackName *string, autoCreate bool) (*int64, error)
}

// Options tunes one Process call.
type Options struct {
	AutoCreateSuppliers bool
}

// Processor runs an extraction payload through decode, sanitize, supplier
// resolution and persistence.
type Processor struct {
	Logger    *slog.Logger
	Decoder   *extraction.Decoder
	Sanitizer *sanitize.Sanitizer
	Suppliers SupplierResolver
	Invoices  repository.InvoiceRepository
}

func NewProcessor(logger *slog.Logger, dec *extraction.Decoder, san *sanitize.Sanitizer, suppliers SupplierResolver, invoices repository.InvoiceRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if san == nil {
		san = sanitize.NewSanitizer(nil)
	}
	return &Processor{Logger: logger, Decoder: dec, Sanitizer: san, Suppliers: suppliers, Invoices: invoices}
}

// Normalize decodes and sanitizes raw without touching storage.
func (p *Processor) Normalize(ctx context.Context, raw []byte) (*entity.ProcessResult, error) {
	rec, repairs, err := p.Decoder.Decode(raw)
	if err != nil {
		p.Logger.Warn("pipeline.decode.failed", "request_id", common.RequestIDFromContext(ctx), "err", err)
		return nil, common.NewAppError(common.CodeInvalidPayload, "extraction payload could not be decoded", err)
	}

	inv := p.Sanitizer.SanitizeParsed(rec)
	if inv.NeedsReview {
		p.Logger.Warn("pipeline.sanitize.needs_review",
			"request_id", common.RequestIDFromContext(ctx),
			"purchase_id", utils.StrOrEmpty(inv.PurchaseID),
			"warnings", inv.Warnings,
		)
	}
	return &entity.ProcessResult{
		Status:  constants.InvoiceStatusNormalized,
		Invoice: inv,
		Dropped: repairs,
	}, nil
}

// Process normalizes raw, resolves its supplier and stores the invoice with
// all of its lines. Supplier and storage failures fail the whole invoice;
// nothing partial is left behind.
func (p *Processor) Process(ctx context.Context, raw []byte, opts Options) (*entity.ProcessResult, error) {
	reqID := common.RequestIDFromContext(ctx)
	res, err := p.Normalize(ctx, raw)
	if err != nil {
		return nil, err
	}
	inv := &res.Invoice
	p.Logger.Info("pipeline.invoice.start", "request_id", reqID, "purchase_id", utils.StrOrEmpty(inv.PurchaseID), "items", len(inv.Items))

	if err := common.ValidateInvoiceHeader(inv.PurchaseDate, inv.SupplierNIF); err != nil {
		return nil, common.NewAppError(common.CodeInvalidPayload, "sanitized header failed validation", err)
	}

	id, err := p.Suppliers.Resolve(ctx, inv.SupplierNIF, inv.SupplierDescription, opts.AutoCreateSuppliers)
	if err != nil {
		p.Logger.Error("pipeline.supplier.failed", "request_id", reqID, "nif", utils.StrOrEmpty(inv.SupplierNIF), "err", err)
		res.Status = constants.InvoiceStatusFailed
		return res, common.NewAppError(common.CodeSupplierResolveFailed, "supplier resolution failed", err)
	}
	inv.SupplierID = id

	rec, err := p.Invoices.InsertLineItems(ctx, *inv)
	if err != nil {
		p.Logger.Error("pipeline.persist.failed", "request_id", reqID, "purchase_id", utils.StrOrEmpty(inv.PurchaseID), "err", err)
		res.Status = constants.InvoiceStatusFailed
		return res, common.NewAppError(common.CodeLineItemsInsertFailed, "line items were not stored", err)
	}

	res.InvoiceID = rec.ID
	res.Status = constants.InvoiceStatusPersisted
	p.Logger.Info("pipeline.invoice.ok",
		"request_id", reqID,
		"invoice_id", rec.ID,
		"supplier_id", supplierIDAttr(id),
		"items", rec.ItemCount,
		"needs_review", inv.NeedsReview,
	)
	return res, nil
}

// Lookup returns a stored invoice and its lines.
func (p *Processor) Lookup(ctx context.Context, id uuid.UUID) (*entity.InvoiceRecord, []*entity.LineItem, error) {
	rec, err := p.Invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := p.Invoices.ListLineItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return rec, items, nil
}

func supplierIDAttr(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
