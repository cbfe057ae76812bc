// Package reconcile turns one raw extracted line item into a typed,
// arithmetically consistent line. Normalization is delegated to
// internal/normalize; cross-field repairs are isolated rules (see rules.go)
// that can be disabled by name.
package reconcile

import (
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/normalize"
)

// Report lists the rules that changed a line, in the order they fired.
type Report struct {
	Fired []string
}

// Has reports whether the named rule fired.
func (r Report) Has(name string) bool {
	for _, n := range r.Fired {
		if n == name {
			return true
		}
	}
	return false
}

// Reconciler applies the enabled rules to line items. It holds no mutable
// state and is safe for concurrent use.
type Reconciler struct {
	rules []Rule
}

// NewReconciler builds a reconciler running DefaultRules minus the disabled
// rule names. Unknown names are ignored.
func NewReconciler(disabled ...string) *Reconciler {
	off := make(map[string]struct{}, len(disabled))
	for _, n := range disabled {
		off[n] = struct{}{}
	}
	var rules []Rule
	for _, r := range DefaultRules() {
		if _, skip := off[r.Name()]; !skip {
			rules = append(rules, r)
		}
	}
	return &Reconciler{rules: rules}
}

// Rules returns the names of the enabled rules in execution order.
func (r *Reconciler) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name()
	}
	return names
}

// CleanItem normalizes and repairs one raw line. It never fails: every field
// that cannot be recovered is left null.
func (r *Reconciler) CleanItem(raw entity.RawLineItem) entity.NormalizedLineItem {
	item, _ := r.Reconcile(raw)
	return item
}

// Reconcile is CleanItem plus the report of which rules fired.
func (r *Reconciler) Reconcile(raw entity.RawLineItem) (entity.NormalizedLineItem, Report) {
	item := prepare(raw)

	l := &Line{
		Qty:           item.Qty,
		PriceUnit:     item.PriceUnit,
		PriceTotal:    item.PriceTotal,
		VATRate:       item.VATRate,
		RawPriceUnit:  item.PriceUnit,
		RawPriceTotal: item.PriceTotal,
	}

	var rep Report
	for _, rule := range r.rules {
		if !rule.Apply(l) {
			continue
		}
		rep.Fired = append(rep.Fired, rule.Name())
		if rule.Name() == RuleQtyOutlier {
			r.rederive(l, &rep)
		}
	}

	item.Qty = l.Qty
	item.PriceUnit = l.PriceUnit
	item.PriceTotal = l.PriceTotal
	item.VATRate = l.VATRate
	return item, rep
}

// rederive recomputes prices derived from a quantity that qtyOutlier has
// since corrected. Values delivered by extraction are kept.
func (r *Reconciler) rederive(l *Line, rep *Report) {
	l.PriceUnit = l.RawPriceUnit
	l.PriceTotal = l.RawPriceTotal
	for _, rule := range r.rules {
		switch rule.Name() {
		case RuleDerivePriceUnit, RuleDerivePriceTotal:
			rule.Apply(l)
		}
	}
}

// prepare resolves the description and code fallbacks and runs the field
// normalizers.
func prepare(raw entity.RawLineItem) entity.NormalizedLineItem {
	item := entity.NormalizedLineItem{
		ProductDesc: raw.Str("product_desc", "description"),
		ProductCode: raw.Str("product_code"),
	}
	if item.ProductCode == nil && item.ProductDesc != nil {
		item.ProductCode = normalize.ProductCode(*item.ProductDesc)
	}

	item.Qty = normalize.Number(raw.Value("qty"))
	item.PriceUnit = normalize.Number(raw.Value("price_unit"))
	item.PriceTotal = normalize.Number(raw.Value("price_total"))
	item.VATRate = normalize.VAT(raw.Value("vat_rate"))
	if u := raw.Str("unit_supplier", "unit"); u != nil {
		item.UnitSupplier = normalize.Unit(*u)
	}
	return item
}
