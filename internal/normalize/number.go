package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
)

var (
	// 1.234,56 / 12.345.678,9
	reGroupedCommaDecimal = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+,\d+$`)
	// 1.234 / 12.345.678 (no decimal part)
	reGroupedDotInteger = regexp.MustCompile(`^-?\d+(\.\d{3})+$`)

	reNumberChars = regexp.MustCompile(`[^0-9.,\-]`)
	reNotNumeric  = regexp.MustCompile(`[^0-9.\-]`)
)

// Number parses a quantity or price in an unknown locale. Numeric inputs are
// taken as values; strings go through NumberString. The result is null when
// nothing numeric can be recovered.
func Number(v any) decimal.NullDecimal {
	switch t := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return valid(t)
	case decimal.NullDecimal:
		return t
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return NumberString(t.String())
		}
		return valid(d)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.NullDecimal{}
		}
		return valid(decimal.NewFromFloat(t))
	case float32:
		return Number(float64(t))
	case int:
		return valid(decimal.NewFromInt(int64(t)))
	case int64:
		return valid(decimal.NewFromInt(t))
	case int32:
		return valid(decimal.NewFromInt32(t))
	case string:
		return NumberString(t)
	default:
		return decimal.NullDecimal{}
	}
}

// NumberString parses s as a decimal number, resolving "." and "," between
// the Portuguese/European convention (1.234,56) and the plain one (1234.56).
// Currency symbols, spaces and non-breaking spaces are ignored.
func NumberString(s string) decimal.NullDecimal {
	s, ok := entity.Text(s)
	if !ok {
		return decimal.NullDecimal{}
	}
	s = reNumberChars.ReplaceAllString(s, "")

	switch {
	case reGroupedCommaDecimal.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Contains(s, ",") && !strings.Contains(s, "."):
		s = strings.Replace(s, ",", ".", 1)
	case reGroupedDotInteger.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	s = reNotNumeric.ReplaceAllString(s, "")
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return valid(d)
}

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
