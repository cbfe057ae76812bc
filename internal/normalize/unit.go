package normalize

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/supplier-invoices/constants"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
)

// Unit canonicalizes a free-text unit of measure ("kg", "Unidades", "lt")
// into a short code. Blank input yields nil.
func Unit(v any) *string {
	raw, ok := entity.Text(v)
	if !ok {
		return nil
	}
	upper := strings.ToUpper(raw)
	key := strings.ToUpper(fold(raw))

	code := func(c string) *string { return &c }
	switch {
	case strings.HasPrefix(key, "UN"):
		return code(constants.UnitPiece)
	case strings.HasPrefix(key, "GR") || key == "G":
		return code(constants.UnitGram)
	case strings.HasPrefix(key, "KG"):
		return code(constants.UnitKilogram)
	case strings.HasPrefix(key, "L"):
		return code(constants.UnitLitre)
	case key == "U":
		return code(constants.UnitPiece)
	case hasPackagingToken(key):
		return code(upper)
	}

	r := []rune(upper)
	if len(r) <= 3 {
		return code(upper)
	}
	return code(string(r[:3]))
}

func hasPackagingToken(s string) bool {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, t := range tokens {
		if constants.IsPackagingToken(t) {
			return true
		}
	}
	return false
}
