package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/supplier-invoices/constants"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
)

var reVATToken = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// VAT extracts a VAT percentage from text such as "23%", "13,0 %" or "IVA 6".
// Values at most constants.VATSnapTolerance from a statutory bracket are snapped
// onto it; anything else passes through rounded to 2 decimals.
func VAT(v any) decimal.NullDecimal {
	s, ok := entity.Text(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	tok := reVATToken.FindString(s)
	if tok == "" {
		return decimal.NullDecimal{}
	}
	rate, err := decimal.NewFromString(strings.Replace(tok, ",", ".", 1))
	if err != nil {
		return decimal.NullDecimal{}
	}

	// Inclusive: 22 and 24 snap to 23, 21.99 and 24.01 do not.
	tolerance := decimal.NewFromFloat(constants.VATSnapTolerance)
	for _, b := range constants.VATBrackets {
		bracket := decimal.NewFromInt(b)
		if !rate.Sub(bracket).Abs().GreaterThan(tolerance) {
			return valid(bracket)
		}
	}
	return valid(rate.Round(2))
}
