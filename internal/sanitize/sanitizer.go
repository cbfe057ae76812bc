// Package sanitize produces a NormalizedInvoice from a raw extraction record:
// invoice-level fields are cleaned here and every line goes through the
// reconciler. Problems that do not stop processing are reported as warnings
// and flip NeedsReview; field values are never altered to hide them.
package sanitize

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/reconcile"
)

// Review warnings.
const (
	WarnDateMissing    = "purchase_date missing or unparsable"
	WarnNIFMissing     = "supplier_nif missing or not 9 digits"
	WarnNIFChecksum    = "supplier_nif fails check digit"
	WarnNoItems        = "no line items"
	warnLineMismatch   = "line %d: price_total %s != qty x price_unit %s"
	warnLineQtyOutlier = "line %d: qty corrected from outlier"
	warnLinePriceDrop  = "line %d: implausible price_unit dropped"
	warnLineVATRange   = "line %d: vat_rate %s outside 0..100 dropped"
)

var (
	lineTolerance = decimal.RequireFromString("0.02")
	maxVATRate    = decimal.NewFromInt(100)
)

// Sanitizer is stateless apart from its reconciler and safe for concurrent use.
type Sanitizer struct {
	reconciler *reconcile.Reconciler
}

// NewSanitizer returns a sanitizer using r for line items; nil uses the
// default rule set.
func NewSanitizer(r *reconcile.Reconciler) *Sanitizer {
	if r == nil {
		r = reconcile.NewReconciler()
	}
	return &Sanitizer{reconciler: r}
}

// SanitizeParsed normalizes the invoice header, reconciles every line and
// collects review warnings. It never fails.
func (s *Sanitizer) SanitizeParsed(raw entity.RawExtractionRecord) entity.NormalizedInvoice {
	inv := entity.NormalizedInvoice{
		PurchaseID:          raw.Str("purchase_id"),
		PurchaseDate:        NormalizeDate(raw.Value("purchase_date")),
		SupplierDescription: raw.Str("supplier_description"),
		SupplierNIF:         NormalizeNIF(raw.Value("supplier_nif")),
	}

	rawItems := raw.Items()
	inv.Items = make([]entity.NormalizedLineItem, 0, len(rawItems))
	for i, ri := range rawItems {
		item, rep := s.reconciler.Reconcile(ri)
		if vat := item.VATRate; vat.Valid && (vat.Decimal.IsNegative() || vat.Decimal.GreaterThan(maxVATRate)) {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf(warnLineVATRange, i+1, vat.Decimal.String()))
			item.VATRate = decimal.NullDecimal{}
		}
		inv.Items = append(inv.Items, item)
		inv.Warnings = append(inv.Warnings, lineWarnings(i+1, item, rep)...)
	}

	var header []string
	if inv.PurchaseDate == nil {
		header = append(header, WarnDateMissing)
	}
	switch {
	case inv.SupplierNIF == nil:
		header = append(header, WarnNIFMissing)
	case !ValidNIFChecksum(*inv.SupplierNIF):
		header = append(header, WarnNIFChecksum)
	}
	if len(inv.Items) == 0 {
		header = append(header, WarnNoItems)
	}
	inv.Warnings = append(header, inv.Warnings...)
	inv.NeedsReview = len(inv.Warnings) > 0
	return inv
}

func lineWarnings(lineNo int, item entity.NormalizedLineItem, rep reconcile.Report) []string {
	var out []string
	if rep.Has(reconcile.RuleQtyOutlier) {
		out = append(out, fmt.Sprintf(warnLineQtyOutlier, lineNo))
	}
	if rep.Has(reconcile.RuleImplausiblePriceUnit) && !item.PriceUnit.Valid {
		out = append(out, fmt.Sprintf(warnLinePriceDrop, lineNo))
	}
	if item.Qty.Valid && item.PriceUnit.Valid && item.PriceTotal.Valid {
		want := item.Qty.Decimal.Mul(item.PriceUnit.Decimal).Round(2)
		if item.PriceTotal.Decimal.Sub(want).Abs().GreaterThan(lineTolerance) {
			out = append(out, fmt.Sprintf(warnLineMismatch, lineNo,
				item.PriceTotal.Decimal.StringFixed(2), want.StringFixed(2)))
		}
	}
	return out
}
