package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rule names, usable with NewReconciler to switch a heuristic off.
const (
	RuleDerivePriceUnit      = "derive_price_unit"
	RuleDerivePriceTotal     = "derive_price_total"
	RuleQtyOutlier           = "qty_outlier"
	RuleQtyIntegerSnap       = "qty_integer_snap"
	RuleImplausiblePriceUnit = "implausible_price_unit"
	RuleFinalRounding        = "final_rounding"
)

var (
	minPriceUnit     = decimal.RequireFromString("0.01")
	maxPriceUnit     = decimal.NewFromInt(10000)
	outlierThreshold = decimal.NewFromInt(1000)
	integerEpsilon   = decimal.RequireFromString("0.0001")
)

// Line is the working state of one line item while rules run over it.
// RawPriceUnit and RawPriceTotal keep what extraction delivered so a rule
// can undo a derivation made from a value that was later corrected.
type Line struct {
	Qty           decimal.NullDecimal
	PriceUnit     decimal.NullDecimal
	PriceTotal    decimal.NullDecimal
	VATRate       decimal.NullDecimal
	RawPriceUnit  decimal.NullDecimal
	RawPriceTotal decimal.NullDecimal
}

// Rule is one isolated repair heuristic. Apply reports whether it changed l.
type Rule interface {
	Name() string
	Apply(l *Line) bool
}

type ruleFunc struct {
	name string
	fn   func(l *Line) bool
}

func (r ruleFunc) Name() string       { return r.name }
func (r ruleFunc) Apply(l *Line) bool { return r.fn(l) }

// DefaultRules returns the heuristics in the order they must run.
func DefaultRules() []Rule {
	return []Rule{
		ruleFunc{RuleDerivePriceUnit, derivePriceUnit},
		ruleFunc{RuleDerivePriceTotal, derivePriceTotal},
		ruleFunc{RuleQtyOutlier, qtyOutlier},
		ruleFunc{RuleQtyIntegerSnap, qtyIntegerSnap},
		ruleFunc{RuleImplausiblePriceUnit, implausiblePriceUnit},
		ruleFunc{RuleFinalRounding, finalRounding},
	}
}

func missingOrZero(d decimal.NullDecimal) bool { return !d.Valid || d.Decimal.IsZero() }

func set(d decimal.Decimal) decimal.NullDecimal { return decimal.NullDecimal{Decimal: d, Valid: true} }

// derivePriceUnit fills price_unit from price_total / qty. The result is only
// accepted inside [0.01, 10000).
func derivePriceUnit(l *Line) bool {
	if !missingOrZero(l.PriceUnit) || !l.PriceTotal.Valid || missingOrZero(l.Qty) {
		return false
	}
	v := l.PriceTotal.Decimal.Div(l.Qty.Decimal).Round(2)
	if v.LessThan(minPriceUnit) || !v.LessThan(maxPriceUnit) {
		return false
	}
	l.PriceUnit = set(v)
	return true
}

// derivePriceTotal fills price_total from qty * price_unit.
func derivePriceTotal(l *Line) bool {
	if !missingOrZero(l.PriceTotal) || !l.Qty.Valid || !l.PriceUnit.Valid {
		return false
	}
	l.PriceTotal = set(l.Qty.Decimal.Mul(l.PriceUnit.Decimal).Round(2))
	return true
}

// qtyOutlier undoes a quantity inflated by zero padding (1500 read for 15,
// 2000.000 read for 2). The stripped value is adopted only below 1000.
func qtyOutlier(l *Line) bool {
	if !l.Qty.Valid || l.Qty.Decimal.LessThan(outlierThreshold) {
		return false
	}
	s := l.Qty.Decimal.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if strings.Trim(s[i+1:], "0") != "" {
			return false
		}
		s = s[:i]
	}
	s = strings.TrimRight(s, "0")
	if s == "" {
		return false
	}
	v, err := decimal.NewFromString(s)
	if err != nil || !v.IsPositive() || !v.LessThan(outlierThreshold) {
		return false
	}
	l.Qty = set(v)
	return true
}

// qtyIntegerSnap rounds qty onto an integer it is within 0.0001 of.
func qtyIntegerSnap(l *Line) bool {
	if !l.Qty.Valid {
		return false
	}
	n := l.Qty.Decimal.Round(0)
	if n.Equal(l.Qty.Decimal) || l.Qty.Decimal.Sub(n).Abs().GreaterThan(integerEpsilon) {
		return false
	}
	l.Qty = set(n)
	return true
}

// implausiblePriceUnit handles a price_unit under 0.01, usually a misplaced
// decimal separator: recompute it from price_total / qty or drop it.
func implausiblePriceUnit(l *Line) bool {
	if !l.PriceUnit.Valid || !l.PriceUnit.Decimal.LessThan(minPriceUnit) {
		return false
	}
	if l.PriceTotal.Valid && !missingOrZero(l.Qty) {
		v := l.PriceTotal.Decimal.Div(l.Qty.Decimal).Round(2)
		if !v.LessThan(minPriceUnit) {
			l.PriceUnit = set(v)
			return true
		}
	}
	l.PriceUnit = decimal.NullDecimal{}
	return true
}

// finalRounding applies storage precision: qty 3 dp, prices and VAT 2 dp.
func finalRounding(l *Line) bool {
	changed := false
	round := func(d *decimal.NullDecimal, places int32) {
		if !d.Valid {
			return
		}
		r := d.Decimal.Round(places)
		if !r.Equal(d.Decimal) {
			changed = true
		}
		d.Decimal = r
	}
	round(&l.Qty, 3)
	round(&l.PriceUnit, 2)
	round(&l.PriceTotal, 2)
	round(&l.VATRate, 2)
	return changed
}
