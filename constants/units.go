package constants

import "strings"

// Canonical unit-of-measure codes.
const (
	UnitPiece    = "UN"
	UnitGram     = "GR"
	UnitKilogram = "KG"
	UnitLitre    = "L"
)

// PackagingTokens are container words kept verbatim by the unit normalizer
// (PET bottles, bag-in-box, "embalagem").
var PackagingTokens = map[string]struct{}{
	"PET": {},
	"BIB": {},
	"EB":  {},
}

// IsPackagingToken reports whether tok (any case) is a packaging token.
func IsPackagingToken(tok string) bool {
	_, ok := PackagingTokens[strings.ToUpper(tok)]
	return ok
}
